package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// HeldTokenStore implements storage.HeldTokenStore using PostgreSQL.
type HeldTokenStore struct {
	pool *Pool
}

// NewHeldTokenStore creates a new HeldTokenStore.
func NewHeldTokenStore(pool *Pool) *HeldTokenStore {
	return &HeldTokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HeldTokenStore = (*HeldTokenStore)(nil)

const upsertHeldTokenQuery = `
	INSERT INTO held_tokens (
		owner_address, contract_address, token_id, token_type, display_name, metadata, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (owner_address, contract_address, token_id) DO UPDATE SET
		token_type = EXCLUDED.token_type,
		display_name = EXCLUDED.display_name,
		metadata = EXCLUDED.metadata,
		updated_at = EXCLUDED.updated_at
`

// Upsert inserts or overwrites a holding.
func (s *HeldTokenStore) Upsert(ctx context.Context, t *domain.HeldToken) error {
	args, err := heldTokenArgs(t)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, upsertHeldTokenQuery, args...); err != nil {
		return fmt.Errorf("upsert held token: %w", err)
	}
	return nil
}

// UpsertBulk upserts a batch in a single transaction.
func (s *HeldTokenStore) UpsertBulk(ctx context.Context, tokens []*domain.HeldToken) error {
	if len(tokens) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range tokens {
		args, err := heldTokenArgs(t)
		if err != nil {
			return err
		}
		batch.Queue(upsertHeldTokenQuery, args...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range tokens {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert held token batch: %w", err)
		}
	}
	return nil
}

// GetByOwner retrieves all holdings for a wallet ordered by (contract, token id).
func (s *HeldTokenStore) GetByOwner(ctx context.Context, owner string) ([]*domain.HeldToken, error) {
	query := `
		SELECT owner_address, contract_address, token_id, token_type, display_name, metadata, updated_at
		FROM held_tokens
		WHERE owner_address = $1
		ORDER BY contract_address ASC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strings.ToLower(owner))
	if err != nil {
		return nil, fmt.Errorf("query held tokens: %w", err)
	}
	defer rows.Close()

	return scanHeldTokens(rows)
}

// GetByOwnerPage retrieves one page of holdings plus the total row count.
func (s *HeldTokenStore) GetByOwnerPage(ctx context.Context, owner string, limit, offset int) ([]*domain.HeldToken, int, error) {
	owner = strings.ToLower(owner)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM held_tokens WHERE owner_address = $1`, owner,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count held tokens: %w", err)
	}

	query := `
		SELECT owner_address, contract_address, token_id, token_type, display_name, metadata, updated_at
		FROM held_tokens
		WHERE owner_address = $1
		ORDER BY contract_address ASC, token_id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query held tokens page: %w", err)
	}
	defer rows.Close()

	tokens, err := scanHeldTokens(rows)
	if err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}

// Delete removes one holding. Missing rows are not an error.
func (s *HeldTokenStore) Delete(ctx context.Context, owner, contract, tokenID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM held_tokens WHERE owner_address = $1 AND contract_address = $2 AND token_id = $3`,
		strings.ToLower(owner), contract, tokenID,
	)
	if err != nil {
		return fmt.Errorf("delete held token: %w", err)
	}
	return nil
}

// heldTokenArgs validates a holding and renders its query arguments.
func heldTokenArgs(t *domain.HeldToken) ([]interface{}, error) {
	if t == nil || t.OwnerAddress == "" || t.ContractAddress == "" || t.TokenID == "" {
		return nil, storage.ErrInvalidInput
	}

	var metadataJSON []byte
	if t.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(t.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal held token metadata: %w", err)
		}
	}

	return []interface{}{
		strings.ToLower(t.OwnerAddress),
		t.ContractAddress,
		t.TokenID,
		string(t.TokenType),
		t.DisplayName,
		metadataJSON,
		t.UpdatedAt,
	}, nil
}

// scanHeldTokens scans multiple rows.
func scanHeldTokens(rows pgx.Rows) ([]*domain.HeldToken, error) {
	var tokens []*domain.HeldToken

	for rows.Next() {
		var t domain.HeldToken
		var tokenType string
		var metadataJSON []byte

		err := rows.Scan(
			&t.OwnerAddress,
			&t.ContractAddress,
			&t.TokenID,
			&tokenType,
			&t.DisplayName,
			&metadataJSON,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan held token row: %w", err)
		}

		t.TokenType = domain.TokenType(tokenType)
		if len(metadataJSON) > 0 {
			var meta domain.TokenMetadata
			if err := json.Unmarshal(metadataJSON, &meta); err != nil {
				return nil, fmt.Errorf("unmarshal held token metadata: %w", err)
			}
			t.Metadata = &meta
		}

		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate held token rows: %w", err)
	}

	return tokens, nil
}

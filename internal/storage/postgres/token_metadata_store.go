package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert inserts or refreshes metadata. GREATEST on last_updated keeps the
// column monotonic under concurrent refreshes; the descriptive columns only
// move forward with it.
func (s *TokenMetadataStore) Upsert(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.ContractAddress == "" || m.TokenID == "" {
		return storage.ErrInvalidInput
	}

	attributesJSON, err := json.Marshal(m.Attributes)
	if err != nil {
		return fmt.Errorf("marshal metadata attributes: %w", err)
	}
	var extraJSON []byte
	if m.Extra != nil {
		extraJSON, err = json.Marshal(m.Extra)
		if err != nil {
			return fmt.Errorf("marshal metadata extra: %w", err)
		}
	}

	query := `
		INSERT INTO nft_metadata (
			contract_address, token_id, name, description, image_url,
			attributes, extra, last_updated, last_checked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (contract_address, token_id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.last_updated >= nft_metadata.last_updated THEN EXCLUDED.name ELSE nft_metadata.name END,
			description = CASE WHEN EXCLUDED.last_updated >= nft_metadata.last_updated THEN EXCLUDED.description ELSE nft_metadata.description END,
			image_url = CASE WHEN EXCLUDED.last_updated >= nft_metadata.last_updated THEN EXCLUDED.image_url ELSE nft_metadata.image_url END,
			attributes = CASE WHEN EXCLUDED.last_updated >= nft_metadata.last_updated THEN EXCLUDED.attributes ELSE nft_metadata.attributes END,
			extra = CASE WHEN EXCLUDED.last_updated >= nft_metadata.last_updated THEN EXCLUDED.extra ELSE nft_metadata.extra END,
			last_checked = GREATEST(EXCLUDED.last_checked, nft_metadata.last_checked),
			last_updated = GREATEST(EXCLUDED.last_updated, nft_metadata.last_updated)
	`

	_, err = s.pool.Exec(ctx, query,
		m.ContractAddress,
		m.TokenID,
		m.Name,
		m.Description,
		m.ImageURL,
		attributesJSON,
		extraJSON,
		m.LastUpdated,
		m.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("upsert token metadata: %w", err)
	}
	return nil
}

// Get retrieves metadata. Returns ErrNotFound if absent.
func (s *TokenMetadataStore) Get(ctx context.Context, contract, tokenID string) (*domain.TokenMetadata, error) {
	query := `
		SELECT contract_address, token_id, name, description, image_url,
		       attributes, extra, last_updated, last_checked
		FROM nft_metadata
		WHERE contract_address = $1 AND token_id = $2
	`

	var m domain.TokenMetadata
	var attributesJSON, extraJSON []byte

	err := s.pool.QueryRow(ctx, query, contract, tokenID).Scan(
		&m.ContractAddress,
		&m.TokenID,
		&m.Name,
		&m.Description,
		&m.ImageURL,
		&attributesJSON,
		&extraJSON,
		&m.LastUpdated,
		&m.LastChecked,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata: %w", err)
	}

	m.Attributes = []domain.TokenAttribute{}
	if len(attributesJSON) > 0 {
		if err := json.Unmarshal(attributesJSON, &m.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal metadata attributes: %w", err)
		}
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &m.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal metadata extra: %w", err)
		}
	}

	return &m, nil
}

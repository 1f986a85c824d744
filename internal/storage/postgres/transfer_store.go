package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// TransferStore implements storage.TransferStore using PostgreSQL.
type TransferStore struct {
	pool *Pool
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(pool *Pool) *TransferStore {
	return &TransferStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)

const transferColumns = `id, from_address, to_address, contract_address, token_id, status, tx_hash, error, created_at, updated_at`

// Insert adds a new record. Returns ErrDuplicateKey if the id exists.
func (s *TransferStore) Insert(ctx context.Context, r *domain.TransferRecord) error {
	if r == nil || r.ID == "" || r.FromAddress == "" || r.ToAddress == "" || r.ContractAddress == "" || r.TokenID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		strings.ToLower(r.FromAddress),
		strings.ToLower(r.ToAddress),
		strings.ToLower(r.ContractAddress),
		r.TokenID,
		string(r.Status),
		r.TxHash,
		r.Error,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID retrieves a record. Returns ErrNotFound if the id is unknown.
func (s *TransferStore) GetByID(ctx context.Context, id string) (*domain.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	r, err := s.scanTransfer(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return r, nil
}

// GetByWallet retrieves all records where the wallet is sender or recipient,
// newest first.
func (s *TransferStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE from_address = $1 OR to_address = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var records []*domain.TransferRecord
	for rows.Next() {
		r, err := s.scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}
	return records, nil
}

// UpdateStatus writes the new status atomically and returns the refreshed
// record. COALESCE keeps the existing tx_hash/error when the caller passes nil.
func (s *TransferStore) UpdateStatus(ctx context.Context, id string, status domain.TransferStatus, txHash, errMsg *string, updatedAt int64) (*domain.TransferRecord, error) {
	query := `
		UPDATE transfers
		SET status = $2,
		    tx_hash = COALESCE($3, tx_hash),
		    error = COALESCE($4, error),
		    updated_at = $5
		WHERE id = $1
		RETURNING ` + transferColumns

	r, err := s.scanTransfer(s.pool.QueryRow(ctx, query, id, string(status), txHash, errMsg, updatedAt))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update transfer status: %w", err)
	}
	return r, nil
}

// HasPending reports whether a pending record exists for (from, contract, token id).
func (s *TransferStore) HasPending(ctx context.Context, from, contract, tokenID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transfers
			WHERE from_address = $1 AND contract_address = $2 AND token_id = $3 AND status = $4
		)
	`

	var exists bool
	err := s.pool.QueryRow(ctx, query,
		strings.ToLower(from), strings.ToLower(contract), tokenID, string(domain.TransferStatusPending),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending transfer: %w", err)
	}
	return exists, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *TransferStore) scanTransfer(row rowScanner) (*domain.TransferRecord, error) {
	var r domain.TransferRecord
	var status string

	err := row.Scan(
		&r.ID,
		&r.FromAddress,
		&r.ToAddress,
		&r.ContractAddress,
		&r.TokenID,
		&status,
		&r.TxHash,
		&r.Error,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.TransferStatus(status)
	return &r, nil
}

package storage

import (
	"context"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
)

// HeldTokenStore persists the derived per-wallet holdings set.
// Rows are a performance accelerator only; replay of the transfer log is the
// source of truth and may overwrite or delete anything here.
type HeldTokenStore interface {
	// Upsert inserts or overwrites a holding keyed by (owner, contract, token id).
	Upsert(ctx context.Context, t *domain.HeldToken) error

	// UpsertBulk upserts a batch atomically.
	UpsertBulk(ctx context.Context, tokens []*domain.HeldToken) error

	// GetByOwner retrieves all holdings for a wallet, ordered by
	// (contract_address, token_id) ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.HeldToken, error)

	// GetByOwnerPage retrieves one page of holdings plus the total row count.
	GetByOwnerPage(ctx context.Context, owner string, limit, offset int) ([]*domain.HeldToken, int, error)

	// Delete removes one holding. Deleting a missing row is not an error.
	Delete(ctx context.Context, owner, contract, tokenID string) error
}

// TokenMetadataStore persists resolved token metadata keyed by (contract, token id).
type TokenMetadataStore interface {
	// Upsert inserts or refreshes metadata. LastUpdated never goes backwards:
	// an upsert carrying an older LastUpdated keeps the stored value.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// Get retrieves metadata. Returns ErrNotFound if absent.
	Get(ctx context.Context, contract, tokenID string) (*domain.TokenMetadata, error)
}

// TransferStore persists transfer lifecycle records.
type TransferStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, r *domain.TransferRecord) error

	// GetByID retrieves a record. Returns ErrNotFound if the id is unknown.
	GetByID(ctx context.Context, id string) (*domain.TransferRecord, error)

	// GetByWallet retrieves all records where the wallet is sender or
	// recipient, ordered by created_at DESC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.TransferRecord, error)

	// UpdateStatus writes a new status plus its associated fields atomically
	// and returns the refreshed record. Returns ErrNotFound if the id is unknown.
	UpdateStatus(ctx context.Context, id string, status domain.TransferStatus, txHash, errMsg *string, updatedAt int64) (*domain.TransferRecord, error)

	// HasPending reports whether a pending record exists for
	// (from, contract, token id).
	HasPending(ctx context.Context, from, contract, tokenID string) (bool, error)
}

// TransferEventArchive is an append-only mirror of indexer transfer logs,
// used for analytics and backfill. Appends are best-effort from callers.
type TransferEventArchive interface {
	// Append stores a fetched transfer log snapshot for a wallet.
	Append(ctx context.Context, wallet string, events []*domain.ChainTransferEvent) error

	// GetByWallet retrieves archived events for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.ChainTransferEvent, error)
}

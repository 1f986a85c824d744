// Package indexer fetches per-wallet token transfer logs from an external
// chain indexing API.
package indexer

import (
	"context"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
)

// Client fetches the complete token transfer log for a wallet.
type Client interface {
	// TokenTransfers returns every token transfer touching the wallet,
	// ordered by timestamp ascending. An empty log is not an error.
	TokenTransfers(ctx context.Context, wallet string) ([]*domain.ChainTransferEvent, error)
}

// Package stub provides an in-memory indexer.Client for testing.
package stub

import (
	"context"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
)

// Client implements indexer.Client from a fixed per-wallet event map.
type Client struct {
	Transfers map[string][]*domain.ChainTransferEvent

	// Err forces every call to fail, mimicking an indexer outage.
	Err error
}

// NewClient creates an empty stub client.
func NewClient() *Client {
	return &Client{Transfers: make(map[string][]*domain.ChainTransferEvent)}
}

// TokenTransfers returns the configured events for the wallet.
func (c *Client) TokenTransfers(_ context.Context, wallet string) ([]*domain.ChainTransferEvent, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Transfers[wallet], nil
}

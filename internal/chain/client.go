// Package chain provides read-only access to token contracts over JSON-RPC.
package chain

import (
	"context"
	"math/big"
)

// Client defines the contract read interface used by ownership verification
// and metadata resolution.
type Client interface {
	// OwnerOf queries the single-owner standard's ownerOf(tokenId).
	// Errors on contracts that do not implement it.
	OwnerOf(ctx context.Context, contract, tokenID string) (string, error)

	// BalanceOf queries the multi-edition standard's balanceOf(account, tokenId).
	BalanceOf(ctx context.Context, owner, contract, tokenID string) (*big.Int, error)

	// TokenURI queries the single-owner standard's tokenURI(tokenId).
	TokenURI(ctx context.Context, contract, tokenID string) (string, error)

	// URI queries the multi-edition standard's uri(tokenId). The returned
	// template may contain an {id} placeholder.
	URI(ctx context.Context, contract, tokenID string) (string, error)
}

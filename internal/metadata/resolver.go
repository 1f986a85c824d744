// Package metadata resolves descriptive token metadata through a layered
// fallback chain: fresh store rows, contract URI queries, content gateways,
// stale store rows, and finally synthesized placeholders. Resolution never
// fails; every path produces a usable document.
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/redengineer-ownplay/TheMarketplace/internal/chain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// FreshnessWindow is how long a stored document is served without
// re-resolving from the chain.
const FreshnessWindow = 24 * time.Hour

// Placeholder values for missing or unresolvable fields.
const (
	DefaultName        = "Unnamed NFT"
	DefaultDescription = "No description available"

	// Sentinel document written when a URI was found but its content could
	// not be fetched or parsed.
	UnavailableName        = "Unknown NFT"
	UnavailableDescription = "Metadata temporarily unavailable"
)

// Fetcher retrieves the content behind a token URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Resolver resolves token metadata. Safe for concurrent use.
type Resolver struct {
	store   storage.TokenMetadataStore
	chain   chain.Client
	fetcher Fetcher
	logger  *logrus.Logger
	now     func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(store storage.TokenMetadataStore, client chain.Client, fetcher Fetcher, logger *logrus.Logger) *Resolver {
	return &Resolver{
		store:   store,
		chain:   client,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve returns metadata for the token. The result is never nil and the
// error is reserved for context cancellation; every resolution failure
// degrades to a placeholder document instead.
func (r *Resolver) Resolve(ctx context.Context, contract, tokenID string) (*domain.TokenMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nowMs := r.now().UnixMilli()

	stored, storeErr := r.store.Get(ctx, contract, tokenID)
	if storeErr == nil && nowMs-stored.LastUpdated < FreshnessWindow.Milliseconds() {
		return stored, nil
	}

	uri, uriErr := r.tokenURI(ctx, contract, tokenID)
	if uriErr != nil {
		// No URI reachable on the contract. A stale stored document beats
		// a placeholder.
		if storeErr == nil {
			return stored, nil
		}
		r.logger.WithError(uriErr).WithFields(logrus.Fields{
			"contract": contract,
			"token_id": tokenID,
		}).Debug("no metadata URI available, synthesizing placeholder")
		return r.placeholder(contract, tokenID, "NFT "+tokenID, UnavailableDescription, nowMs), nil
	}

	body, err := r.fetcher.Fetch(ctx, uri)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"contract": contract,
			"token_id": tokenID,
			"uri":      uri,
		}).Warn("metadata content fetch failed")
		return r.writeBack(ctx, r.placeholder(contract, tokenID, UnavailableName, UnavailableDescription, nowMs)), nil
	}

	meta, err := parseDocument(contract, tokenID, body, nowMs)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"contract": contract,
			"token_id": tokenID,
		}).Warn("metadata payload unparseable")
		return r.writeBack(ctx, r.placeholder(contract, tokenID, UnavailableName, UnavailableDescription, nowMs)), nil
	}

	return r.writeBack(ctx, meta), nil
}

// ResolveBatch resolves many tokens concurrently, bounded by maxConcurrent.
// Items fail independently; the result always has one entry per request, in
// request order.
func (r *Resolver) ResolveBatch(ctx context.Context, refs []domain.TokenRef, maxConcurrent int64) ([]*domain.TokenMetadata, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := semaphore.NewWeighted(maxConcurrent)
	results := make([]*domain.TokenMetadata, len(refs))

	for i, ref := range refs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(i int, ref domain.TokenRef) {
			defer sem.Release(1)
			meta, err := r.Resolve(ctx, ref.ContractAddress, ref.TokenID)
			if err != nil {
				meta = r.placeholder(ref.ContractAddress, ref.TokenID, "NFT "+ref.TokenID, UnavailableDescription, r.now().UnixMilli())
			}
			results[i] = meta
		}(i, ref)
	}

	if err := sem.Acquire(ctx, maxConcurrent); err != nil {
		return nil, err
	}
	return results, nil
}

// tokenURI queries the contract for a metadata URI: single-owner tokenURI
// first, multi-edition uri second with {id} template expansion.
func (r *Resolver) tokenURI(ctx context.Context, contract, tokenID string) (string, error) {
	uri, err := r.chain.TokenURI(ctx, contract, tokenID)
	if err == nil && uri != "" {
		return uri, nil
	}

	tmpl, uriErr := r.chain.URI(ctx, contract, tokenID)
	if uriErr != nil || tmpl == "" {
		if uriErr == nil {
			uriErr = fmt.Errorf("empty uri")
		}
		return "", fmt.Errorf("tokenURI (%v) and uri (%v) both failed", err, uriErr)
	}
	return ExpandIDTemplate(tmpl, tokenID), nil
}

// writeBack persists the resolved document best-effort and returns it. A
// store failure only costs the next request a re-resolution.
func (r *Resolver) writeBack(ctx context.Context, meta *domain.TokenMetadata) *domain.TokenMetadata {
	if err := r.store.Upsert(ctx, meta); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"contract": meta.ContractAddress,
			"token_id": meta.TokenID,
		}).Warn("metadata write-back failed")
	}
	return meta
}

// placeholder builds a minimal valid document for a token.
func (r *Resolver) placeholder(contract, tokenID, name, description string, nowMs int64) *domain.TokenMetadata {
	return &domain.TokenMetadata{
		ContractAddress: contract,
		TokenID:         tokenID,
		Name:            name,
		Description:     description,
		Attributes:      []domain.TokenAttribute{},
		LastUpdated:     nowMs,
		LastChecked:     nowMs,
	}
}

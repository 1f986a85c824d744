// Package holdings derives a wallet's current token holdings by replaying
// its transfer log, verifying each candidate on chain, and reconciling the
// result against the holdings store.
package holdings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/indexer"
	"github.com/redengineer-ownplay/TheMarketplace/internal/observability"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// Verifier answers whether a wallet holds a token right now.
type Verifier interface {
	Verify(ctx context.Context, wallet, contract, tokenID string) (bool, domain.TokenType)
}

// MetadataResolver resolves descriptive metadata for a token.
type MetadataResolver interface {
	Resolve(ctx context.Context, contract, tokenID string) (*domain.TokenMetadata, error)
}

// Reconciler computes current holdings from the transfer log and keeps the
// holdings store in sync with the result.
type Reconciler struct {
	indexer  indexer.Client
	verifier Verifier
	resolver MetadataResolver
	store    storage.HeldTokenStore
	archive  storage.TransferEventArchive
	logger   *logrus.Logger
	now      func() time.Time
}

// NewReconciler creates a Reconciler. archive may be nil to disable event
// archiving.
func NewReconciler(
	idx indexer.Client,
	verifier Verifier,
	resolver MetadataResolver,
	store storage.HeldTokenStore,
	archive storage.TransferEventArchive,
	logger *logrus.Logger,
) *Reconciler {
	return &Reconciler{
		indexer:  idx,
		verifier: verifier,
		resolver: resolver,
		store:    store,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
	}
}

// ComputeHoldings replays the wallet's transfer log into its current holdings
// set, persists the result, and prunes store rows the replay no longer
// produces. When the transfer log is unreachable the stored holdings are
// served instead.
func (r *Reconciler) ComputeHoldings(ctx context.Context, wallet string) ([]*domain.HeldToken, error) {
	wallet = strings.ToLower(wallet)
	started := r.now()

	events, err := r.indexer.TokenTransfers(ctx, wallet)
	if err != nil {
		r.logger.WithError(err).WithField("wallet", wallet).Warn("transfer log unreachable, serving stored holdings")
		stored, storeErr := r.store.GetByOwner(ctx, wallet)
		if storeErr != nil {
			observability.RecordReconciliation("store", "error", time.Since(started).Seconds())
			return nil, fmt.Errorf("transfer log fetch failed (%v) and store fallback failed: %w", err, storeErr)
		}
		observability.RecordReconciliation("store", "success", time.Since(started).Seconds())
		return stored, nil
	}

	if r.archive != nil && len(events) > 0 {
		if err := r.archive.Append(ctx, wallet, events); err != nil {
			r.logger.WithError(err).WithField("wallet", wallet).Warn("transfer event archive append failed")
		}
	}

	holdings := r.replay(ctx, wallet, events)

	if err := r.persist(ctx, holdings); err != nil {
		r.logger.WithError(err).WithField("wallet", wallet).Warn("holdings persist failed")
	}
	r.prune(ctx, wallet, holdings)

	observability.RecordReconciliation("replay", "success", time.Since(started).Seconds())
	observability.RecordEventsReplayed(len(events))
	observability.DefaultMetrics.LastSuccessfulReconciliation.SetToCurrentTime()
	return holdings, nil
}

// replay walks the transfer log oldest-first. An incoming transfer adds the
// token after on-chain verification; an outgoing transfer removes it. A token
// reacquired after leaving gets verified and added again.
func (r *Reconciler) replay(ctx context.Context, wallet string, events []*domain.ChainTransferEvent) []*domain.HeldToken {
	ordered := make([]*domain.ChainTransferEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	nowMs := r.now().UnixMilli()
	unique := make(map[string]*domain.HeldToken)
	var order []string

	for _, e := range ordered {
		key := domain.TokenKey(strings.ToLower(e.ContractAddress), e.TokenID)

		switch {
		case strings.EqualFold(e.ToAddress, wallet):
			if _, held := unique[key]; held {
				continue
			}
			owned, tokenType := r.verifier.Verify(ctx, wallet, e.ContractAddress, e.TokenID)
			if !owned {
				continue
			}
			token := &domain.HeldToken{
				OwnerAddress:    wallet,
				ContractAddress: strings.ToLower(e.ContractAddress),
				TokenID:         e.TokenID,
				TokenType:       tokenType,
				DisplayName:     e.TokenName,
				UpdatedAt:       nowMs,
			}
			if meta, err := r.resolver.Resolve(ctx, token.ContractAddress, token.TokenID); err == nil {
				token.Metadata = meta
			}
			unique[key] = token
			order = append(order, key)

		case strings.EqualFold(e.FromAddress, wallet):
			delete(unique, key)
		}
	}

	holdings := make([]*domain.HeldToken, 0, len(unique))
	for _, key := range order {
		if t, held := unique[key]; held {
			holdings = append(holdings, t)
			delete(unique, key)
		}
	}
	return holdings
}

// persist upserts the batch, retrying row by row if the bulk write fails so
// one bad row cannot sink the whole set.
func (r *Reconciler) persist(ctx context.Context, holdings []*domain.HeldToken) error {
	if len(holdings) == 0 {
		return nil
	}
	if err := r.store.UpsertBulk(ctx, holdings); err == nil {
		return nil
	}

	var lastErr error
	for _, t := range holdings {
		if err := r.store.Upsert(ctx, t); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"contract": t.ContractAddress,
				"token_id": t.TokenID,
			}).Warn("holding upsert failed")
			lastErr = err
		}
	}
	return lastErr
}

// prune removes store rows the replay no longer produces.
func (r *Reconciler) prune(ctx context.Context, wallet string, holdings []*domain.HeldToken) {
	existing, err := r.store.GetByOwner(ctx, wallet)
	if err != nil {
		r.logger.WithError(err).WithField("wallet", wallet).Warn("holdings prune read failed")
		return
	}

	current := make(map[string]struct{}, len(holdings))
	for _, t := range holdings {
		current[t.Key()] = struct{}{}
	}

	for _, t := range existing {
		if _, held := current[t.Key()]; held {
			continue
		}
		if err := r.store.Delete(ctx, wallet, t.ContractAddress, t.TokenID); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"contract": t.ContractAddress,
				"token_id": t.TokenID,
			}).Warn("holdings prune delete failed")
		}
	}
}

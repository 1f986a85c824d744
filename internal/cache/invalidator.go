package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/observability"
)

// Cache key prefixes for wallet-scoped views. Every paginated view of a
// wallet lives under one of these namespaces so it can be dropped wholesale
// when the wallet's state changes.
const (
	PrefixHoldings        = "nfts_list"
	PrefixTransferHistory = "transfer_history"
)

// PageKey builds the cache key for one page of a wallet-scoped view.
func PageKey(wallet string, limit, offset int) string {
	return fmt.Sprintf("%s:%d:%d", strings.ToLower(wallet), limit, offset)
}

// Namespace is the key-enumeration surface of a prefixed cache. Any
// *Cache[T] satisfies it regardless of its value type.
type Namespace interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
}

// Invalidator drops every cached page of a wallet's views. Deletion is
// verified by re-enumeration; leftover keys are logged, never fatal.
type Invalidator struct {
	namespaces []Namespace
	logger     *logrus.Logger
}

// NewInvalidator creates an Invalidator over the given cache namespaces.
func NewInvalidator(logger *logrus.Logger, namespaces ...Namespace) *Invalidator {
	return &Invalidator{namespaces: namespaces, logger: logger}
}

// InvalidateWallet removes every cached page for the wallet across all
// namespaces. Returns the number of keys deleted. Enumeration or deletion
// errors are logged and the remaining namespaces still processed; the first
// error is returned.
func (i *Invalidator) InvalidateWallet(ctx context.Context, wallet string) (int, error) {
	pattern := strings.ToLower(wallet) + ":*"
	deleted := 0
	incomplete := false
	var firstErr error

	for _, ns := range i.namespaces {
		keys, err := ns.Keys(ctx, pattern)
		if err != nil {
			i.logger.WithError(err).WithField("wallet", wallet).Warn("cache key enumeration failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(keys) == 0 {
			continue
		}

		if err := ns.DeleteMany(ctx, keys); err != nil {
			i.logger.WithError(err).WithField("wallet", wallet).Warn("cache key deletion failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted += len(keys)

		// Verify: anything still matching means a concurrent writer raced
		// the deletion and a stale page may be served until its TTL.
		remaining, err := ns.Keys(ctx, pattern)
		if err == nil && len(remaining) > 0 {
			incomplete = true
			i.logger.WithFields(logrus.Fields{
				"wallet":    wallet,
				"remaining": len(remaining),
			}).Warn("cache invalidation incomplete")
		}
	}

	observability.RecordInvalidation(deleted, incomplete)
	return deleted, firstErr
}

package holdings

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/cache"
	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// Pagination and caching defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// PageTTL is how long one cached holdings page is served before the
	// transfer log is replayed again.
	PageTTL = 300 * time.Second
)

// PageCache caches one holdings page per (wallet, limit, offset).
type PageCache interface {
	Get(ctx context.Context, key string) (domain.Page[*domain.HeldToken], error)
	Set(ctx context.Context, key string, value domain.Page[*domain.HeldToken], ttl time.Duration) error
}

// Service serves paginated wallet holdings with read-through caching.
type Service struct {
	reconciler *Reconciler
	store      storage.HeldTokenStore
	pages      PageCache
	logger     *logrus.Logger
}

// NewService creates a holdings Service. pages may be nil to disable caching.
func NewService(reconciler *Reconciler, store storage.HeldTokenStore, pages PageCache, logger *logrus.Logger) *Service {
	return &Service{
		reconciler: reconciler,
		store:      store,
		pages:      pages,
		logger:     logger,
	}
}

// GetHoldings returns one page of the wallet's current holdings. Pages are
// cached for PageTTL; a cache hit skips replay entirely.
func (s *Service) GetHoldings(ctx context.Context, wallet string, limit, offset int) (domain.Page[*domain.HeldToken], error) {
	var zero domain.Page[*domain.HeldToken]

	normalized, err := domain.NormalizeAddress(wallet)
	if err != nil {
		return zero, err
	}
	limit, offset = clampPage(limit, offset)

	key := cache.PageKey(normalized, limit, offset)
	if s.pages != nil {
		if page, err := s.pages.Get(ctx, key); err == nil {
			return page, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			s.logger.WithError(err).WithField("wallet", normalized).Warn("holdings cache read failed")
		}
	}

	all, err := s.reconciler.ComputeHoldings(ctx, normalized)
	if err != nil {
		// Replay failed outright. Whatever the store still has beats an
		// error page.
		s.logger.WithError(err).WithField("wallet", normalized).Warn("holdings replay failed, paging the store directly")
		items, total, storeErr := s.store.GetByOwnerPage(ctx, normalized, limit, offset)
		if storeErr != nil {
			return zero, err
		}
		if items == nil {
			items = []*domain.HeldToken{}
		}
		return domain.Page[*domain.HeldToken]{
			Items:   items,
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: total > offset+limit,
		}, nil
	}

	page := domain.NewPage(all, limit, offset)

	if s.pages != nil {
		if err := s.pages.Set(ctx, key, page, PageTTL); err != nil {
			s.logger.WithError(err).WithField("wallet", normalized).Warn("holdings cache write failed")
		}
	}
	return page, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

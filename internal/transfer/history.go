package transfer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/cache"
	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/indexer"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// History pagination and caching defaults. History pages tolerate more
// staleness than holdings.
const (
	HistoryPageTTL     = 3600 * time.Second
	DefaultHistorySize = 20
	MaxHistorySize     = 100
)

// Entry sources.
const (
	SourceLocal = "local" // platform-initiated transfer record
	SourceChain = "chain" // indexer-observed on-chain transfer
)

// HistoryEntry is one row of the merged transfer history view.
type HistoryEntry struct {
	ID              string                `json:"id,omitempty" msgpack:"id"`
	FromAddress     string                `json:"from" msgpack:"from_address"`
	ToAddress       string                `json:"to" msgpack:"to_address"`
	ContractAddress string                `json:"contractAddress" msgpack:"contract_address"`
	TokenID         string                `json:"tokenId" msgpack:"token_id"`
	TokenName       string                `json:"tokenName,omitempty" msgpack:"token_name"`
	Status          domain.TransferStatus `json:"status" msgpack:"status"`
	TxHash          string                `json:"txHash,omitempty" msgpack:"tx_hash"`
	Timestamp       int64                 `json:"timestamp" msgpack:"timestamp"` // unix ms
	Source          string                `json:"source" msgpack:"source"`
}

// HistoryCache caches one history page per (wallet, limit, offset).
type HistoryCache interface {
	Get(ctx context.Context, key string) (domain.Page[HistoryEntry], error)
	Set(ctx context.Context, key string, value domain.Page[HistoryEntry], ttl time.Duration) error
}

// HistoryService merges locally persisted transfer records with the wallet's
// on-chain transfer log into one newest-first view. The view is best-effort:
// either source failing narrows the view, both failing yields an empty page,
// never an error.
type HistoryService struct {
	transfers storage.TransferStore
	indexer   indexer.Client
	pages     HistoryCache
	logger    *logrus.Logger
}

// NewHistoryService creates a HistoryService. indexer and pages may be nil.
func NewHistoryService(transfers storage.TransferStore, idx indexer.Client, pages HistoryCache, logger *logrus.Logger) *HistoryService {
	return &HistoryService{
		transfers: transfers,
		indexer:   idx,
		pages:     pages,
		logger:    logger,
	}
}

// GetTransferHistory returns one page of the wallet's merged transfer history.
func (s *HistoryService) GetTransferHistory(ctx context.Context, wallet string, limit, offset int) (domain.Page[HistoryEntry], error) {
	var zero domain.Page[HistoryEntry]

	normalized, err := domain.NormalizeAddress(wallet)
	if err != nil {
		return zero, err
	}
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	if limit > MaxHistorySize {
		limit = MaxHistorySize
	}
	if offset < 0 {
		offset = 0
	}

	key := cache.PageKey(normalized, limit, offset)
	if s.pages != nil {
		if page, err := s.pages.Get(ctx, key); err == nil {
			return page, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			s.logger.WithError(err).WithField("wallet", normalized).Warn("history cache read failed")
		}
	}

	entries := s.merge(ctx, normalized)
	page := domain.NewPage(entries, limit, offset)

	if s.pages != nil {
		if err := s.pages.Set(ctx, key, page, HistoryPageTTL); err != nil {
			s.logger.WithError(err).WithField("wallet", normalized).Warn("history cache write failed")
		}
	}
	return page, nil
}

// merge combines both sources newest-first. A chain event matching a local
// record's tx hash is dropped; the local record carries strictly more state.
func (s *HistoryService) merge(ctx context.Context, wallet string) []HistoryEntry {
	var entries []HistoryEntry
	seenTx := make(map[string]struct{})

	records, err := s.transfers.GetByWallet(ctx, wallet)
	if err != nil {
		s.logger.WithError(err).WithField("wallet", wallet).Warn("transfer record read failed, chain log only")
	}
	for _, r := range records {
		entry := HistoryEntry{
			ID:              r.ID,
			FromAddress:     r.FromAddress,
			ToAddress:       r.ToAddress,
			ContractAddress: r.ContractAddress,
			TokenID:         r.TokenID,
			Status:          r.Status,
			Timestamp:       r.CreatedAt,
			Source:          SourceLocal,
		}
		if r.TxHash != nil {
			entry.TxHash = *r.TxHash
			seenTx[*r.TxHash] = struct{}{}
		}
		entries = append(entries, entry)
	}

	if s.indexer != nil {
		events, err := s.indexer.TokenTransfers(ctx, wallet)
		if err != nil {
			s.logger.WithError(err).WithField("wallet", wallet).Warn("chain transfer log read failed, local records only")
		}
		for _, e := range events {
			if _, seen := seenTx[e.TxHash]; seen {
				continue
			}
			entries = append(entries, HistoryEntry{
				FromAddress:     e.FromAddress,
				ToAddress:       e.ToAddress,
				ContractAddress: e.ContractAddress,
				TokenID:         e.TokenID,
				TokenName:       e.TokenName,
				Status:          domain.TransferStatusCompleted,
				TxHash:          e.TxHash,
				Timestamp:       e.Timestamp * 1000, // indexer reports seconds
				Source:          SourceChain,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries
}

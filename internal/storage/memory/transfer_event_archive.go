package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// TransferEventArchive is an in-memory implementation of
// storage.TransferEventArchive. Appends deduplicate on (tx hash, contract,
// token id) so repeated log snapshots do not multiply rows.
type TransferEventArchive struct {
	mu       sync.RWMutex
	byWallet map[string]map[string]*domain.ChainTransferEvent
}

// NewTransferEventArchive creates a new in-memory transfer event archive.
func NewTransferEventArchive() *TransferEventArchive {
	return &TransferEventArchive{
		byWallet: make(map[string]map[string]*domain.ChainTransferEvent),
	}
}

// Append stores a transfer log snapshot for a wallet.
func (s *TransferEventArchive) Append(_ context.Context, wallet string, events []*domain.ChainTransferEvent) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wallet = strings.ToLower(wallet)
	if s.byWallet[wallet] == nil {
		s.byWallet[wallet] = make(map[string]*domain.ChainTransferEvent)
	}
	for _, e := range events {
		if e == nil {
			continue
		}
		evCopy := *e
		s.byWallet[wallet][e.TxHash+"-"+domain.TokenKey(e.ContractAddress, e.TokenID)] = &evCopy
	}
	return nil
}

// GetByWallet retrieves archived events for a wallet, oldest first.
func (s *TransferEventArchive) GetByWallet(_ context.Context, wallet string) ([]*domain.ChainTransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byWallet[strings.ToLower(wallet)]
	out := make([]*domain.ChainTransferEvent, 0, len(events))
	for _, e := range events {
		evCopy := *e
		out = append(out, &evCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].TxHash < out[j].TxHash
	})
	return out, nil
}

var _ storage.TransferEventArchive = (*TransferEventArchive)(nil)

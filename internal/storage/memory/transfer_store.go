package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// TransferStore is an in-memory implementation of storage.TransferStore.
type TransferStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.TransferRecord
}

// NewTransferStore creates a new in-memory transfer store.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		byID: make(map[string]*domain.TransferRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if the id exists.
func (s *TransferStore) Insert(_ context.Context, r *domain.TransferRecord) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *r
	s.byID[r.ID] = &recCopy
	return nil
}

// GetByID retrieves a record. Returns ErrNotFound if the id is unknown.
func (s *TransferStore) GetByID(_ context.Context, id string) (*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *r
	return &recCopy, nil
}

// GetByWallet retrieves records where the wallet is sender or recipient,
// newest first.
func (s *TransferStore) GetByWallet(_ context.Context, wallet string) ([]*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallet = strings.ToLower(wallet)
	var out []*domain.TransferRecord
	for _, r := range s.byID {
		if strings.ToLower(r.FromAddress) == wallet || strings.ToLower(r.ToAddress) == wallet {
			recCopy := *r
			out = append(out, &recCopy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateStatus writes a new status and its associated fields, returning the
// refreshed record. Returns ErrNotFound if the id is unknown.
func (s *TransferStore) UpdateStatus(_ context.Context, id string, status domain.TransferStatus, txHash, errMsg *string, updatedAt int64) (*domain.TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	r.Status = status
	if txHash != nil {
		r.TxHash = txHash
	}
	if errMsg != nil {
		r.Error = errMsg
	}
	r.UpdatedAt = updatedAt

	recCopy := *r
	return &recCopy, nil
}

// HasPending reports whether a pending record exists for (from, contract, token id).
func (s *TransferStore) HasPending(_ context.Context, from, contract, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from = strings.ToLower(from)
	for _, r := range s.byID {
		if r.Status == domain.TransferStatusPending &&
			strings.ToLower(r.FromAddress) == from &&
			strings.EqualFold(r.ContractAddress, contract) &&
			r.TokenID == tokenID {
			return true, nil
		}
	}
	return false, nil
}

var _ storage.TransferStore = (*TransferStore)(nil)

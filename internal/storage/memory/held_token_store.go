// Package memory provides in-memory storage implementations for development
// and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// HeldTokenStore is an in-memory implementation of storage.HeldTokenStore.
type HeldTokenStore struct {
	mu      sync.RWMutex
	byOwner map[string]map[string]*domain.HeldToken // owner -> token key -> holding
}

// NewHeldTokenStore creates a new in-memory held token store.
func NewHeldTokenStore() *HeldTokenStore {
	return &HeldTokenStore{
		byOwner: make(map[string]map[string]*domain.HeldToken),
	}
}

// Upsert inserts or overwrites a holding.
func (s *HeldTokenStore) Upsert(_ context.Context, t *domain.HeldToken) error {
	if t == nil || t.OwnerAddress == "" || t.ContractAddress == "" || t.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(t)
	return nil
}

// UpsertBulk upserts a batch. Validation runs before any write so a bad row
// leaves the store untouched.
func (s *HeldTokenStore) UpsertBulk(_ context.Context, tokens []*domain.HeldToken) error {
	for _, t := range tokens {
		if t == nil || t.OwnerAddress == "" || t.ContractAddress == "" || t.TokenID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tokens {
		s.upsertLocked(t)
	}
	return nil
}

func (s *HeldTokenStore) upsertLocked(t *domain.HeldToken) {
	owner := strings.ToLower(t.OwnerAddress)
	if s.byOwner[owner] == nil {
		s.byOwner[owner] = make(map[string]*domain.HeldToken)
	}
	tokenCopy := *t
	tokenCopy.OwnerAddress = owner
	s.byOwner[owner][tokenCopy.Key()] = &tokenCopy
}

// GetByOwner retrieves all holdings for a wallet ordered by (contract, token id).
func (s *HeldTokenStore) GetByOwner(_ context.Context, owner string) ([]*domain.HeldToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedByOwnerLocked(owner), nil
}

// GetByOwnerPage retrieves one page of holdings plus the total count.
func (s *HeldTokenStore) GetByOwnerPage(_ context.Context, owner string, limit, offset int) ([]*domain.HeldToken, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedByOwnerLocked(owner)
	total := len(all)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return all[offset:end], total, nil
}

// Delete removes one holding. Missing rows are not an error.
func (s *HeldTokenStore) Delete(_ context.Context, owner, contract, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := s.byOwner[strings.ToLower(owner)]
	if holdings == nil {
		return nil
	}
	delete(holdings, domain.TokenKey(contract, tokenID))
	return nil
}

func (s *HeldTokenStore) sortedByOwnerLocked(owner string) []*domain.HeldToken {
	holdings := s.byOwner[strings.ToLower(owner)]
	out := make([]*domain.HeldToken, 0, len(holdings))
	for _, t := range holdings {
		tokenCopy := *t
		out = append(out, &tokenCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContractAddress != out[j].ContractAddress {
			return out[i].ContractAddress < out[j].ContractAddress
		}
		return out[i].TokenID < out[j].TokenID
	})
	return out
}

var _ storage.HeldTokenStore = (*HeldTokenStore)(nil)

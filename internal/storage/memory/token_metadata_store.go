package memory

import (
	"context"
	"sync"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu      sync.RWMutex
	byToken map[string]*domain.TokenMetadata // keyed by (contract, token id)
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		byToken: make(map[string]*domain.TokenMetadata),
	}
}

// Upsert inserts or refreshes metadata. An upsert carrying an older
// LastUpdated than the stored row is dropped; LastUpdated never regresses.
func (s *TokenMetadataStore) Upsert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.ContractAddress == "" || m.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.TokenKey(m.ContractAddress, m.TokenID)
	if existing, ok := s.byToken[key]; ok && existing.LastUpdated > m.LastUpdated {
		return nil
	}

	metaCopy := *m
	s.byToken[key] = &metaCopy
	return nil
}

// Get retrieves metadata. Returns ErrNotFound if absent.
func (s *TokenMetadataStore) Get(_ context.Context, contract, tokenID string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byToken[domain.TokenKey(contract, tokenID)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	metaCopy := *m
	return &metaCopy, nil
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

func testMetadata(contract, tokenID string, lastUpdated int64) *domain.TokenMetadata {
	return &domain.TokenMetadata{
		ContractAddress: contract,
		TokenID:         tokenID,
		Name:            "Token",
		Description:     "A token",
		ImageURL:        "ipfs://image",
		Attributes:      []domain.TokenAttribute{},
		LastUpdated:     lastUpdated,
		LastChecked:     lastUpdated,
	}
}

func TestTokenMetadataStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	meta := testMetadata("0xc1", "7", 1_700_000_000_000)
	meta.Attributes = []domain.TokenAttribute{{TraitType: "rarity", Value: "epic"}}
	meta.Extra = map[string]interface{}{"external_url": "https://example.com"}
	require.NoError(t, store.Upsert(ctx, meta))

	got, err := store.Get(ctx, "0xc1", "7")
	require.NoError(t, err)
	assert.Equal(t, "Token", got.Name)
	assert.Equal(t, "ipfs://image", got.ImageURL)
	require.Len(t, got.Attributes, 1)
	assert.Equal(t, "rarity", got.Attributes[0].TraitType)
	assert.Equal(t, "https://example.com", got.Extra["external_url"])
	assert.Equal(t, int64(1_700_000_000_000), got.LastUpdated)
}

func TestTokenMetadataStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)

	_, err := store.Get(context.Background(), "0xc1", "404")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenMetadataStore_UpsertNewerWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testMetadata("0xc1", "7", 1000)))

	newer := testMetadata("0xc1", "7", 2000)
	newer.Name = "Renamed"
	require.NoError(t, store.Upsert(ctx, newer))

	got, err := store.Get(ctx, "0xc1", "7")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(2000), got.LastUpdated)
}

func TestTokenMetadataStore_UpsertStaleDropped(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	current := testMetadata("0xc1", "7", 2000)
	current.Name = "Current"
	require.NoError(t, store.Upsert(ctx, current))

	stale := testMetadata("0xc1", "7", 1000)
	stale.Name = "Stale"
	require.NoError(t, store.Upsert(ctx, stale))

	got, err := store.Get(ctx, "0xc1", "7")
	require.NoError(t, err)
	assert.Equal(t, "Current", got.Name)
	assert.Equal(t, int64(2000), got.LastUpdated)
}

func TestTokenMetadataStore_UpsertEqualTimestampRefreshes(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testMetadata("0xc1", "7", 1000)))

	refresh := testMetadata("0xc1", "7", 1000)
	refresh.Name = "Refreshed"
	refresh.LastChecked = 1500
	require.NoError(t, store.Upsert(ctx, refresh))

	got, err := store.Get(ctx, "0xc1", "7")
	require.NoError(t, err)
	assert.Equal(t, "Refreshed", got.Name)
	assert.Equal(t, int64(1500), got.LastChecked)
}

func TestTokenMetadataStore_UpsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)

	err := store.Upsert(context.Background(), &domain.TokenMetadata{ContractAddress: "0xc1"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

func testTransfer(id string, createdAt int64) *domain.TransferRecord {
	return &domain.TransferRecord{
		ID:              id,
		FromAddress:     "0xaaaa",
		ToAddress:       "0xbbbb",
		ContractAddress: "0xc1",
		TokenID:         "7",
		Status:          domain.TransferStatusPending,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestTransferStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testTransfer("t1", 1000)))

	got, err := store.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "0xaaaa", got.FromAddress)
	assert.Equal(t, domain.TransferStatusPending, got.Status)
	assert.Nil(t, got.TxHash)
	assert.Nil(t, got.Error)
}

func TestTransferStore_InsertDuplicateID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testTransfer("t1", 1000)))
	err := store.Insert(ctx, testTransfer("t1", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTransferStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTransferStore_GetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testTransfer("t1", 1000)))
	require.NoError(t, store.Insert(ctx, testTransfer("t2", 3000)))

	incoming := testTransfer("t3", 2000)
	incoming.FromAddress = "0xcccc"
	incoming.ToAddress = "0xaaaa"
	require.NoError(t, store.Insert(ctx, incoming))

	unrelated := testTransfer("t4", 4000)
	unrelated.FromAddress = "0xdddd"
	unrelated.ToAddress = "0xeeee"
	require.NoError(t, store.Insert(ctx, unrelated))

	got, err := store.GetByWallet(ctx, "0xAAAA")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first, both directions.
	assert.Equal(t, "t2", got[0].ID)
	assert.Equal(t, "t3", got[1].ID)
	assert.Equal(t, "t1", got[2].ID)
}

func TestTransferStore_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testTransfer("t1", 1000)))

	got, err := store.UpdateStatus(ctx, "t1", domain.TransferStatusCompleted, ptr("0xhash"), nil, 2000)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCompleted, got.Status)
	require.NotNil(t, got.TxHash)
	assert.Equal(t, "0xhash", *got.TxHash)
	assert.Nil(t, got.Error)
	assert.Equal(t, int64(2000), got.UpdatedAt)
	assert.Equal(t, int64(1000), got.CreatedAt)

	// nil tx hash keeps the stored value.
	got, err = store.UpdateStatus(ctx, "t1", domain.TransferStatusCompleted, nil, nil, 3000)
	require.NoError(t, err)
	require.NotNil(t, got.TxHash)
	assert.Equal(t, "0xhash", *got.TxHash)
}

func TestTransferStore_UpdateStatusNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)

	_, err := store.UpdateStatus(context.Background(), "missing", domain.TransferStatusFailed, nil, ptr("boom"), 1000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTransferStore_HasPending(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testTransfer("t1", 1000)))

	pending, err := store.HasPending(ctx, "0xAAAA", "0xc1", "7")
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = store.HasPending(ctx, "0xaaaa", "0xc1", "8")
	require.NoError(t, err)
	assert.False(t, pending)

	_, err = store.UpdateStatus(ctx, "t1", domain.TransferStatusFailed, nil, ptr("rejected"), 2000)
	require.NoError(t, err)

	pending, err = store.HasPending(ctx, "0xaaaa", "0xc1", "7")
	require.NoError(t, err)
	assert.False(t, pending)
}

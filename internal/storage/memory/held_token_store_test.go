package memory

import (
	"context"
	"testing"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

func heldToken(owner, contract, tokenID string) *domain.HeldToken {
	return &domain.HeldToken{
		OwnerAddress:    owner,
		ContractAddress: contract,
		TokenID:         tokenID,
		TokenType:       domain.TokenTypeERC721,
	}
}

func TestHeldTokenStore_UpsertAndGet(t *testing.T) {
	s := NewHeldTokenStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, heldToken("0xAAA", "0xc1", "2")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, heldToken("0xaaa", "0xc1", "1")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, heldToken("0xaaa", "0xc0", "9")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Owner lookup is case-insensitive and ordering is (contract, token id).
	got, err := s.GetByOwner(ctx, "0xAaA")
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(got))
	}
	if got[0].ContractAddress != "0xc0" || got[1].TokenID != "1" || got[2].TokenID != "2" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestHeldTokenStore_UpsertOverwrites(t *testing.T) {
	s := NewHeldTokenStore()
	ctx := context.Background()

	first := heldToken("0xaaa", "0xc1", "1")
	first.DisplayName = "old"
	s.Upsert(ctx, first)

	second := heldToken("0xaaa", "0xc1", "1")
	second.DisplayName = "new"
	s.Upsert(ctx, second)

	got, _ := s.GetByOwner(ctx, "0xaaa")
	if len(got) != 1 || got[0].DisplayName != "new" {
		t.Errorf("expected single overwritten holding, got %+v", got)
	}
}

func TestHeldTokenStore_Delete(t *testing.T) {
	s := NewHeldTokenStore()
	ctx := context.Background()

	s.Upsert(ctx, heldToken("0xaaa", "0xc1", "1"))

	if err := s.Delete(ctx, "0xAAA", "0xc1", "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := s.GetByOwner(ctx, "0xaaa")
	if len(got) != 0 {
		t.Errorf("expected empty holdings, got %+v", got)
	}

	// Deleting again is a no-op.
	if err := s.Delete(ctx, "0xaaa", "0xc1", "1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestHeldTokenStore_GetByOwnerPage(t *testing.T) {
	s := NewHeldTokenStore()
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3", "4", "5"} {
		s.Upsert(ctx, heldToken("0xaaa", "0xc1", id))
	}

	items, total, err := s.GetByOwnerPage(ctx, "0xaaa", 2, 2)
	if err != nil {
		t.Fatalf("GetByOwnerPage: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].TokenID != "3" || items[1].TokenID != "4" {
		t.Errorf("unexpected page: %+v", items)
	}

	// Offset past the end yields an empty page with the true total.
	items, total, _ = s.GetByOwnerPage(ctx, "0xaaa", 2, 10)
	if total != 5 || len(items) != 0 {
		t.Errorf("expected empty page with total 5, got %d items total %d", len(items), total)
	}
}

func TestHeldTokenStore_UpsertBulkValidation(t *testing.T) {
	s := NewHeldTokenStore()
	ctx := context.Background()

	err := s.UpsertBulk(ctx, []*domain.HeldToken{
		heldToken("0xaaa", "0xc1", "1"),
		{OwnerAddress: "0xaaa"}, // missing contract and token id
	})
	if err != storage.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// The bad batch must not have written anything.
	got, _ := s.GetByOwner(ctx, "0xaaa")
	if len(got) != 0 {
		t.Errorf("partial write from invalid batch: %+v", got)
	}
}

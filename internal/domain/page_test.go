package domain

import "testing"

func TestNewPage_Middle(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	p := NewPage(all, 2, 2)
	if len(p.Items) != 2 || p.Items[0] != 3 || p.Items[1] != 4 {
		t.Errorf("unexpected items: %v", p.Items)
	}
	if p.Total != 5 {
		t.Errorf("Total = %d, want 5", p.Total)
	}
	if !p.HasMore {
		t.Error("expected HasMore=true")
	}
}

func TestNewPage_LastPage(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	p := NewPage(all, 10, 0)
	if len(p.Items) != 5 {
		t.Errorf("expected 5 items, got %d", len(p.Items))
	}
	if p.HasMore {
		t.Error("expected HasMore=false")
	}
}

func TestNewPage_OffsetPastEnd(t *testing.T) {
	all := []int{1, 2, 3}

	p := NewPage(all, 10, 5)
	if len(p.Items) != 0 {
		t.Errorf("expected empty items, got %v", p.Items)
	}
	if p.HasMore {
		t.Error("expected HasMore=false for offset past end")
	}
	if p.Total != 3 {
		t.Errorf("Total = %d, want 3", p.Total)
	}
}

func TestNewPage_Empty(t *testing.T) {
	p := NewPage([]string{}, 10, 0)
	if p.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if p.Total != 0 || p.HasMore {
		t.Errorf("unexpected page: %+v", p)
	}
}

package services

import (
	"errors"
	"testing"

	"restaurant_pos_backend/internal/cart"
	"restaurant_pos_backend/internal/models"
)

func TestDraftServiceEditsStoredDraft(t *testing.T) {
	f := newOrderFixture(dal, naan)
	drafts := NewDraftService(f.svc, f.menu)

	empty, err := drafts.GetDraft(2)
	if err != nil {
		t.Fatalf("GetDraft() error = %v", err)
	}
	if empty.ID != 0 || empty.Version != 0 || len(empty.Items) != 0 {
		t.Errorf("GetDraft() on a fresh table = %+v, want empty unsaved draft", empty)
	}

	if _, err := drafts.AddItem(2, AddDraftItemRequest{MenuItemID: dal.ID}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if _, err := drafts.AddItem(2, AddDraftItemRequest{MenuItemID: naan.ID}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	got, err := drafts.IncreaseQty(2, 1)
	if err != nil {
		t.Fatalf("IncreaseQty() error = %v", err)
	}
	if got.Items[1].Qty != 2 || got.Total != 160 {
		t.Errorf("after increase: lines %+v total %d, want naan qty 2 and total 160", got.Items, got.Total)
	}

	got, err = drafts.DecreaseQty(2, 0)
	if err != nil {
		t.Fatalf("DecreaseQty() error = %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].MenuItemID != naan.ID {
		t.Errorf("decrease at qty 1 should drop the line, got %+v", got.Items)
	}

	got, err = drafts.RemoveItem(2, 0)
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(got.Items) != 0 || got.Version != 5 {
		t.Errorf("after remove: %d lines version %d, want 0 lines version 5", len(got.Items), got.Version)
	}
}

func TestDraftServiceErrors(t *testing.T) {
	soldOut := models.MenuItem{ID: 3, Name: "Gulab Jamun", Price: 60, Stock: 0}
	f := newOrderFixture(dal, soldOut)
	drafts := NewDraftService(f.svc, f.menu)

	if _, err := drafts.AddItem(1, AddDraftItemRequest{MenuItemID: soldOut.ID}); !errors.Is(err, cart.ErrOutOfStock) {
		t.Errorf("sold out item: error = %v, want cart.ErrOutOfStock", err)
	}
	if _, err := drafts.AddItem(1, AddDraftItemRequest{MenuItemID: 42}); !errors.Is(err, ErrMenuItemNotFound) {
		t.Errorf("unknown item: error = %v, want ErrMenuItemNotFound", err)
	}
	if _, err := drafts.IncreaseQty(1, 0); !errors.Is(err, cart.ErrLineIndex) {
		t.Errorf("empty draft index: error = %v, want cart.ErrLineIndex", err)
	}
	if _, err := drafts.AddItem(0, AddDraftItemRequest{MenuItemID: dal.ID}); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("table 0: error = %v, want ErrInvalidTable", err)
	}
	if f.orders.count() != 0 {
		t.Errorf("failed edits stored %d orders", f.orders.count())
	}
}

func TestDraftServiceSetPhoneSanitises(t *testing.T) {
	f := newOrderFixture(dal)
	drafts := NewDraftService(f.svc, f.menu)

	got, err := drafts.SetPhone(4, SetDraftPhoneRequest{Phone: "(987) 654-3210 ext 5"})
	if err != nil {
		t.Fatalf("SetPhone() error = %v", err)
	}
	if got.PhoneValue() != "9876543210" {
		t.Errorf("phone = %q, want 9876543210", got.PhoneValue())
	}
}

// lostReplySyncer stores the first snapshot but reports a failure for it, as
// when the reply to a committed write never arrives.
type lostReplySyncer struct {
	*orderSyncer
	dropped bool
}

func (s *lostReplySyncer) SyncDraft(snap cart.Snapshot) (int64, error) {
	v, err := s.orderSyncer.SyncDraft(snap)
	if err == nil && !s.dropped {
		s.dropped = true
		return 0, errors.New("timeout reading response")
	}
	return v, err
}

func TestCartRecoversFromLostSyncReply(t *testing.T) {
	f := newOrderFixture(dal, naan)
	c := cart.New(5, &lostReplySyncer{orderSyncer: &orderSyncer{orders: f.svc}})

	if err := c.AddItem(dal); err == nil {
		t.Fatal("first AddItem() should report the lost reply")
	}
	for i := 0; i < 3; i++ {
		if err := c.AddItem(naan); err != nil {
			t.Fatalf("AddItem() #%d error = %v", i+2, err)
		}
	}

	stored, err := f.svc.GetDraft(5)
	if err != nil {
		t.Fatalf("GetDraft() error = %v", err)
	}
	local := c.Lines()
	if len(stored.Items) != len(local) || stored.Items[1].Qty != 3 || stored.Items[1].MenuItemID != naan.ID {
		t.Errorf("stored lines = %+v, local = %+v", stored.Items, local)
	}
	if c.Version() != stored.Version || c.Dirty() {
		t.Errorf("cart version %d dirty %v, stored version %d", c.Version(), c.Dirty(), stored.Version)
	}
}

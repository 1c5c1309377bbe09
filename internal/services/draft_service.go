package services

import (
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/cart"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// AddDraftItemRequest DTO
type AddDraftItemRequest struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required,gt=0"`
}

// SetDraftPhoneRequest DTO
type SetDraftPhoneRequest struct {
	Phone string `json:"phone"`
}

// DraftService edits a table's draft one step at a time, for callers that
// do not keep their own working copy. Each step loads the stored draft,
// applies one cart operation and stores the full result.
type DraftService interface {
	GetDraft(table int) (*models.Order, error)
	AddItem(table int, req AddDraftItemRequest) (*models.Order, error)
	IncreaseQty(table, index int) (*models.Order, error)
	DecreaseQty(table, index int) (*models.Order, error)
	RemoveItem(table, index int) (*models.Order, error)
	SetPhone(table int, req SetDraftPhoneRequest) (*models.Order, error)
	Save(table int) (*models.Order, error)
}

type draftService struct {
	orders   OrderService
	menuRepo repositories.MenuRepository
}

// NewDraftService creates a new instance of DraftService.
func NewDraftService(orders OrderService, menuRepo repositories.MenuRepository) DraftService {
	return &draftService{orders: orders, menuRepo: menuRepo}
}

// orderSyncer stores cart snapshots through OrderService.UpsertDraft.
type orderSyncer struct {
	orders OrderService
	last   *models.Order
}

func (s *orderSyncer) SyncDraft(snap cart.Snapshot) (int64, error) {
	order, err := s.orders.UpsertDraft(UpsertDraftRequest{
		Table:   snap.TableNumber,
		Items:   snap.Items,
		Phone:   snap.Phone,
		Version: snap.Version,
	})
	if err != nil {
		return 0, err
	}
	s.last = order
	return order.Version, nil
}

func (s *orderSyncer) IsStale(err error) bool {
	return errors.Is(err, ErrStaleDraft)
}

// StoredVersion is the version of the table's draft, 0 when it has none.
func (s *orderSyncer) StoredVersion(table int) (int64, error) {
	draft, err := s.orders.GetDraft(table)
	if errors.Is(err, ErrOrderNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return draft.Version, nil
}

// GetDraft returns the stored draft, or an empty unsaved one when the table has none.
func (s *draftService) GetDraft(table int) (*models.Order, error) {
	order, err := s.orders.GetDraft(table)
	if errors.Is(err, ErrOrderNotFound) {
		return &models.Order{TableNumber: table, Status: models.OrderStatusDraft, Items: []models.OrderLine{}}, nil
	}
	return order, err
}

func (s *draftService) AddItem(table int, req AddDraftItemRequest) (*models.Order, error) {
	item, err := s.menuRepo.GetItemByID(nil, req.MenuItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrMenuItemNotFound, req.MenuItemID)
		}
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	return s.apply(table, func(c *cart.Cart) error { return c.AddItem(*item) })
}

func (s *draftService) IncreaseQty(table, index int) (*models.Order, error) {
	return s.apply(table, func(c *cart.Cart) error { return c.IncreaseQty(index) })
}

func (s *draftService) DecreaseQty(table, index int) (*models.Order, error) {
	return s.apply(table, func(c *cart.Cart) error { return c.DecreaseQty(index) })
}

func (s *draftService) RemoveItem(table, index int) (*models.Order, error) {
	return s.apply(table, func(c *cart.Cart) error { return c.RemoveItem(index) })
}

func (s *draftService) SetPhone(table int, req SetDraftPhoneRequest) (*models.Order, error) {
	return s.apply(table, func(c *cart.Cart) error { return c.SetPhone(req.Phone) })
}

func (s *draftService) Save(table int) (*models.Order, error) {
	return s.orders.SaveDraft(table)
}

func (s *draftService) apply(table int, op func(c *cart.Cart) error) (*models.Order, error) {
	if table <= 0 {
		return nil, ErrInvalidTable
	}
	syncer := &orderSyncer{orders: s.orders}

	var c *cart.Cart
	draft, err := s.orders.GetDraft(table)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c = cart.New(table, syncer)
	case err != nil:
		return nil, err
	default:
		c = cart.Resume(draft, syncer)
	}

	if err := op(c); err != nil {
		var syncErr *cart.SyncError
		if errors.As(err, &syncErr) {
			return nil, syncErr.Err
		}
		return nil, err
	}
	return syncer.last, nil
}

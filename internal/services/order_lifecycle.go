package services

import (
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"
)

// Order errors
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrValidation         = errors.New("validation error") // Generic validation error
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInvalidPhone       = errors.New("phone must be 10 digits starting with 6-9")
	ErrInvalidDiscount    = errors.New("discount must be one of 0, 10, 20, 30, 40, 50")
	ErrInvalidTable       = errors.New("table number must be positive")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("order status change not allowed")
	ErrOrderLocked        = errors.New("order is finalized or deleted and can no longer change")
	ErrStaleDraft         = errors.New("draft was changed elsewhere, reload it")
	ErrTotalsMismatch     = errors.New("totals do not match the order items")
	ErrMenuItemNotFound   = errors.New("menu item not found")
)

// ActiveOrderConflictError is returned when a table already has a submitted
// or completed order.
type ActiveOrderConflictError struct {
	Table   int
	OrderID int64
	Status  models.OrderStatus
}

func (e *ActiveOrderConflictError) Error() string {
	return fmt.Sprintf("table %d already has an active order (status: %s)", e.Table, e.Status)
}

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusDraft:     {models.OrderStatusSaved, models.OrderStatusFinalized, models.OrderStatusDeleted},
	models.OrderStatusSaved:     {models.OrderStatusSubmitted, models.OrderStatusFinalized, models.OrderStatusDeleted},
	models.OrderStatusSubmitted: {models.OrderStatusCompleted, models.OrderStatusFinalized, models.OrderStatusDeleted},
	models.OrderStatusCompleted: {models.OrderStatusFinalized, models.OrderStatusDeleted},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.OrderStatus) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w (status: %s)", ErrOrderLocked, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// validateLines checks quantities and that each menu item appears once.
func validateLines(lines []models.OrderLine) error {
	seen := make(map[int64]bool, len(lines))
	for i, l := range lines {
		if l.MenuItemID <= 0 {
			return fmt.Errorf("%w: line %d has no menu item", ErrValidation, i)
		}
		if l.Qty < 1 {
			return fmt.Errorf("%w: line %d quantity must be at least 1", ErrValidation, i)
		}
		if seen[l.MenuItemID] {
			return fmt.Errorf("%w: menu item %d appears more than once", ErrValidation, l.MenuItemID)
		}
		seen[l.MenuItemID] = true
	}
	return nil
}

// validateForSave holds the checks a draft must pass before it is saved.
func validateForSave(lines []models.OrderLine, phone string) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	if err := validateLines(lines); err != nil {
		return err
	}
	if !utils.IsValidMobile(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// guardActiveOrder fails when another order of the table is submitted or
// completed. The matching rows stay locked until the transaction ends.
func (s *orderService) guardActiveOrder(executor repositories.SQLExecutor, table int, selfID int64) error {
	active, err := s.orderRepo.FindActiveByTable(executor, table)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check active orders for table %d: %w", table, err)
	}
	if active.ID == selfID {
		return nil
	}
	return &ActiveOrderConflictError{Table: table, OrderID: active.ID, Status: active.Status}
}

// mapWriteConflict turns unique index violations on orders into service errors.
func mapWriteConflict(err error, table int) error {
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		return err
	}
	switch {
	case strings.Contains(err.Error(), repositories.ConstraintOneActivePerTable):
		return &ActiveOrderConflictError{Table: table, Status: models.OrderStatusSubmitted}
	case strings.Contains(err.Error(), repositories.ConstraintOneDraftPerTable):
		return ErrStaleDraft
	}
	return err
}

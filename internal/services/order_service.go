package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/pricing"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Data Transfer Objects (DTOs) ---

// UpsertDraftRequest carries the complete line list of a table's draft.
// Version is the draft version the client last saw, 0 for a new draft.
type UpsertDraftRequest struct {
	Table   int                `json:"table" binding:"required,gt=0"`
	Items   []models.OrderLine `json:"items" binding:"dive"`
	Phone   string             `json:"phone"`
	Version int64              `json:"version" binding:"gte=0"`
}

// FinalizeOrderRequest freezes an order. Phone is optional and replaces the
// stored one when sent. Total and NetTotal are optional and, when sent, must
// match what the items and discount produce.
type FinalizeOrderRequest struct {
	Items    []models.OrderLine `json:"items" binding:"required,min=1,dive"`
	Discount int                `json:"discount" binding:"discount_step"`
	Phone    string             `json:"phone" binding:"omitempty,in_mobile"`
	Total    *int64             `json:"total"`
	NetTotal *int64             `json:"net_total"`
}

// UpdateOrderRequest is the admin edit of a non-terminal order. Nil fields are left unchanged.
type UpdateOrderRequest struct {
	Items    *[]models.OrderLine `json:"items"`
	Discount *int                `json:"discount"`
	Phone    *string             `json:"phone"`
}

// UpdateOrderStatusRequest is used for updating the status of an order.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PurgeHistoryRequest re-confirms the caller's password before billing history is wiped.
type PurgeHistoryRequest struct {
	Password string `json:"password" binding:"required"`
}

// --- End of DTOs ---

// --- OrderService Interface ---
type OrderService interface {
	UpsertDraft(req UpsertDraftRequest) (*models.Order, error)
	GetDraft(table int) (*models.Order, error)
	SaveDraft(table int) (*models.Order, error)
	Finalize(orderID, userID int64, req FinalizeOrderRequest) (*models.Order, error)
	UpdateOrder(orderID int64, req UpdateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
	DeleteOrder(orderID int64) error
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetBillingHistory(filters models.OrderFilters) ([]models.Order, int, error)
	PurgeHistory(userID int64, password string) (int64, error)
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo    repositories.OrderRepository
	menuRepo     repositories.MenuRepository
	movementRepo repositories.StockMovementRepository
	authRepo     repositories.AuthRepository
	tx           repositories.Transactor
	publisher    events.Publisher
	now          func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	smr repositories.StockMovementRepository,
	ar repositories.AuthRepository,
	tx repositories.Transactor,
	pub events.Publisher,
) OrderService {
	return &orderService{
		orderRepo:    or,
		menuRepo:     mr,
		movementRepo: smr,
		authRepo:     ar,
		tx:           tx,
		publisher:    pub,
		now:          time.Now,
	}
}

// --- Method Implementations ---

// UpsertDraft stores the full line list of a table's draft, creating the
// draft when the table has none. A write based on an outdated version is
// rejected with ErrStaleDraft.
func (s *orderService) UpsertDraft(req UpsertDraftRequest) (*models.Order, error) {
	if req.Table <= 0 {
		return nil, ErrInvalidTable
	}
	if err := validateLines(req.Items); err != nil {
		return nil, err
	}

	var saved *models.Order
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		lines, err := s.completeLines(exec, req.Items, false)
		if err != nil {
			return err
		}

		draft, err := s.orderRepo.FindDraftByTable(exec, req.Table, true)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to load draft for table %d: %w", req.Table, err)
		}

		if draft == nil {
			if req.Version != 0 {
				return fmt.Errorf("%w: table %d has no draft at version %d", ErrStaleDraft, req.Table, req.Version)
			}
			draft = &models.Order{TableNumber: req.Table, Status: models.OrderStatusDraft, Version: 1}
			applyLines(draft, lines)
			draft.Phone = utils.NewNullString(utils.SanitizePhone(req.Phone))
			if _, err := s.orderRepo.CreateOrder(exec, draft); err != nil {
				return mapWriteConflict(fmt.Errorf("failed to create draft: %w", err), req.Table)
			}
			saved = draft
			return nil
		}

		if draft.Version != req.Version {
			return fmt.Errorf("%w: table %d is at version %d, got %d", ErrStaleDraft, req.Table, draft.Version, req.Version)
		}
		applyLines(draft, lines)
		draft.Phone = utils.NewNullString(utils.SanitizePhone(req.Phone))
		draft.Version++
		if err := s.orderRepo.ReplaceOrderItems(exec, draft.ID, draft.Items); err != nil {
			return fmt.Errorf("failed to store draft items: %w", err)
		}
		if err := s.orderRepo.UpdateOrder(exec, draft); err != nil {
			return fmt.Errorf("failed to update draft: %w", err)
		}
		saved = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *orderService) GetDraft(table int) (*models.Order, error) {
	if table <= 0 {
		return nil, ErrInvalidTable
	}
	draft, err := s.orderRepo.FindDraftByTable(nil, table, false)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get draft for table %d: %w", table, err)
	}
	return draft, nil
}

// SaveDraft moves the table's draft to saved after checking, inside the
// same transaction, that the table has no active order.
func (s *orderService) SaveDraft(table int) (*models.Order, error) {
	if table <= 0 {
		return nil, ErrInvalidTable
	}

	var order *models.Order
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		draft, err := s.orderRepo.FindDraftByTable(exec, table, true)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load draft for table %d: %w", table, err)
		}
		if err := s.moveTo(exec, draft, models.OrderStatusSaved); err != nil {
			return err
		}
		order = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.OrderSaved, order, models.OrderStatusDraft)
	return order, nil
}

// Finalize replaces the order's contents with the billed ones and freezes it.
// Stock of every billed item is decremented and recorded as a sale.
func (s *orderService) Finalize(orderID, userID int64, req FinalizeOrderRequest) (*models.Order, error) {
	if !pricing.IsAllowedDiscount(req.Discount) {
		return nil, ErrInvalidDiscount
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := validateLines(req.Items); err != nil {
		return nil, err
	}
	phone := utils.SanitizePhone(req.Phone)
	if phone != "" && !utils.IsValidMobile(phone) {
		return nil, ErrInvalidPhone
	}

	var order *models.Order
	var from models.OrderStatus
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		current, err := s.lockOrder(exec, orderID)
		if err != nil {
			return err
		}
		from = current.Status
		if err := checkTransition(current.Status, models.OrderStatusFinalized); err != nil {
			return err
		}

		lines, err := s.completeLines(exec, req.Items, true)
		if err != nil {
			return err
		}
		applyLines(current, lines)
		current.Discount = req.Discount
		current.NetTotal = pricing.NetTotal(current.Total, current.Discount)
		if (req.Total != nil && *req.Total != current.Total) || (req.NetTotal != nil && *req.NetTotal != current.NetTotal) {
			return fmt.Errorf("%w: expected total %d and net total %d", ErrTotalsMismatch, current.Total, current.NetTotal)
		}

		finalizedAt := s.now()
		if phone != "" {
			current.Phone = &phone
		}
		current.Status = models.OrderStatusFinalized
		current.FinalizedAt = &finalizedAt
		current.Version++

		if err := s.orderRepo.ReplaceOrderItems(exec, current.ID, current.Items); err != nil {
			return fmt.Errorf("failed to store finalized items: %w", err)
		}
		if err := s.orderRepo.UpdateOrder(exec, current); err != nil {
			return fmt.Errorf("failed to finalize order %d: %w", current.ID, err)
		}
		if err := s.recordSales(exec, current, userID); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.OrderFinalized, order, from)
	return order, nil
}

func (s *orderService) recordSales(exec repositories.SQLExecutor, order *models.Order, userID int64) error {
	for _, line := range order.Items {
		if _, err := s.menuRepo.AdjustStock(exec, line.MenuItemID, -line.Qty); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				utils.LogWarn("Billed menu item no longer exists, stock not updated", map[string]interface{}{
					"order_id": order.ID, "menu_item_id": line.MenuItemID,
				})
				continue
			}
			return fmt.Errorf("failed to update stock for menu item %d: %w", line.MenuItemID, err)
		}
		orderID := order.ID
		movement := models.StockMovement{
			MenuItemID:      line.MenuItemID,
			QuantityChanged: -line.Qty,
			Reason:          models.MovementSale,
			OrderID:         &orderID,
			CreatedAt:       s.now(),
		}
		if userID > 0 {
			movement.CreatedBy = &userID
		}
		if _, err := s.movementRepo.CreateMovement(exec, &movement); err != nil {
			return fmt.Errorf("failed to record sale of menu item %d: %w", line.MenuItemID, err)
		}
	}
	return nil
}

func (s *orderService) UpdateOrder(orderID int64, req UpdateOrderRequest) (*models.Order, error) {
	if req.Discount != nil && !pricing.IsAllowedDiscount(*req.Discount) {
		return nil, ErrInvalidDiscount
	}
	if req.Items != nil {
		if len(*req.Items) == 0 {
			return nil, ErrEmptyOrder
		}
		if err := validateLines(*req.Items); err != nil {
			return nil, err
		}
	}
	var phone string
	if req.Phone != nil {
		phone = utils.SanitizePhone(*req.Phone)
		if phone != "" && !utils.IsValidMobile(phone) {
			return nil, ErrInvalidPhone
		}
	}

	var order *models.Order
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		current, err := s.lockOrder(exec, orderID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return fmt.Errorf("%w (status: %s)", ErrOrderLocked, current.Status)
		}

		if req.Items != nil {
			lines, err := s.completeLines(exec, *req.Items, true)
			if err != nil {
				return err
			}
			applyLines(current, lines)
			if err := s.orderRepo.ReplaceOrderItems(exec, current.ID, current.Items); err != nil {
				return fmt.Errorf("failed to store order items: %w", err)
			}
		}
		if req.Discount != nil {
			current.Discount = *req.Discount
		}
		if req.Phone != nil {
			current.Phone = utils.NewNullString(phone)
		}
		current.NetTotal = pricing.NetTotal(current.Total, current.Discount)
		current.Version++

		if err := s.orderRepo.UpdateOrder(exec, current); err != nil {
			return fmt.Errorf("failed to update order %d: %w", current.ID, err)
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order along saved, submitted and completed.
// Finalizing and deleting have their own operations.
func (s *orderService) UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !models.IsValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}
	to := models.OrderStatus(req.Status)
	if to == models.OrderStatusFinalized || to == models.OrderStatusDeleted || to == models.OrderStatusDraft {
		return nil, fmt.Errorf("%w: use the dedicated operation to move an order to %s", ErrInvalidTransition, to)
	}

	var order *models.Order
	var from models.OrderStatus
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		current, err := s.lockOrder(exec, orderID)
		if err != nil {
			return err
		}
		from = current.Status
		if err := s.moveTo(exec, current, to); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.OrderStatusChanged
	if to == models.OrderStatusSaved {
		eventType = events.OrderSaved
	}
	s.publish(eventType, order, from)
	return order, nil
}

// moveTo runs the guards of the target status and stores the change.
func (s *orderService) moveTo(exec repositories.SQLExecutor, order *models.Order, to models.OrderStatus) error {
	if err := checkTransition(order.Status, to); err != nil {
		return err
	}
	switch to {
	case models.OrderStatusSaved:
		if err := validateForSave(order.Items, order.PhoneValue()); err != nil {
			return err
		}
		if err := s.guardActiveOrder(exec, order.TableNumber, order.ID); err != nil {
			return err
		}
	case models.OrderStatusSubmitted:
		if err := s.guardActiveOrder(exec, order.TableNumber, order.ID); err != nil {
			return err
		}
	}

	order.Status = to
	order.Version++
	if err := s.orderRepo.UpdateOrder(exec, order); err != nil {
		return mapWriteConflict(fmt.Errorf("failed to move order %d to %s: %w", order.ID, to, err), order.TableNumber)
	}
	return nil
}

// DeleteOrder soft-deletes an order. It stays visible in billing history.
func (s *orderService) DeleteOrder(orderID int64) error {
	var order *models.Order
	var from models.OrderStatus
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		current, err := s.lockOrder(exec, orderID)
		if err != nil {
			return err
		}
		from = current.Status
		if err := checkTransition(current.Status, models.OrderStatusDeleted); err != nil {
			return err
		}
		current.Status = models.OrderStatusDeleted
		current.Version++
		if err := s.orderRepo.UpdateOrder(exec, current); err != nil {
			return fmt.Errorf("failed to delete order %d: %w", current.ID, err)
		}
		order = current
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(events.OrderDeleted, order, from)
	return nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	for _, st := range filters.Statuses {
		if !models.IsValidOrderStatus(string(st)) {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, st)
		}
	}
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}
	return order, nil
}

// GetBillingHistory lists finalized and deleted orders.
func (s *orderService) GetBillingHistory(filters models.OrderFilters) ([]models.Order, int, error) {
	filters.Statuses = []models.OrderStatus{models.OrderStatusFinalized, models.OrderStatusDeleted}
	return s.GetOrders(filters)
}

// PurgeHistory hard-deletes the billing history once the caller's password checks out.
func (s *orderService) PurgeHistory(userID int64, password string) (int64, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("failed to load user for history purge: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	var purged int64
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		n, err := s.orderRepo.DeleteOrdersByStatus(exec, []models.OrderStatus{models.OrderStatusFinalized, models.OrderStatusDeleted})
		if err != nil {
			return fmt.Errorf("failed to purge billing history: %w", err)
		}
		purged = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	utils.LogInfo("Billing history purged", map[string]interface{}{"user_id": userID, "orders": purged})
	return purged, nil
}

func (s *orderService) lockOrder(exec repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.LockOrder(exec, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return order, nil
}

// completeLines fills in the name, price and image of each line from the
// menu. With keepOverrides, lines that already carry a name and a positive
// price keep them; the admin screens use this to bill a custom price.
func (s *orderService) completeLines(exec repositories.SQLExecutor, lines []models.OrderLine, keepOverrides bool) ([]models.OrderLine, error) {
	out := make([]models.OrderLine, len(lines))
	copy(out, lines)

	overridden := func(l models.OrderLine) bool {
		return keepOverrides && l.Name != "" && l.Price > 0
	}

	var missing []int64
	for _, l := range out {
		if !overridden(l) {
			missing = append(missing, l.MenuItemID)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	items, err := s.menuRepo.GetItemsByIDs(exec, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}
	for i := range out {
		if overridden(out[i]) {
			continue
		}
		item, ok := items[out[i].MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: ID %d", ErrMenuItemNotFound, out[i].MenuItemID)
		}
		out[i].Name, out[i].Price, out[i].Image = item.Name, item.Price, item.Image
	}
	return out, nil
}

func applyLines(order *models.Order, lines []models.OrderLine) {
	order.Items = lines
	order.Total = pricing.OrderTotal(lines)
	order.NetTotal = pricing.NetTotal(order.Total, order.Discount)
}

func (s *orderService) publish(eventType string, order *models.Order, from models.OrderStatus) {
	if s.publisher == nil {
		return
	}
	ev := events.NewOrderEvent(eventType, order.ID, order.TableNumber, string(from), string(order.Status), order.NetTotal)
	if err := s.publisher.PublishOrderEvent(context.Background(), ev); err != nil {
		utils.LogError(err, fmt.Sprintf("Failed to publish %s for order %d", eventType, order.ID))
	}
}

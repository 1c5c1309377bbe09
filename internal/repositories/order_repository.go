package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
// Every returned order has its Items loaded, ordered by line position.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error)
	LockOrder(executor SQLExecutor, orderID int64) (*models.Order, error)
	FindDraftByTable(executor SQLExecutor, tableNumber int, forUpdate bool) (*models.Order, error)
	FindActiveByTable(executor SQLExecutor, tableNumber int) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	UpdateOrder(executor SQLExecutor, order *models.Order) error
	ReplaceOrderItems(executor SQLExecutor, orderID int64, items []models.OrderLine) error
	DeleteOrdersByStatus(executor SQLExecutor, statuses []models.OrderStatus) (int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.table_number, o.status, o.discount, o.phone, o.total, o.net_total,
	o.version, o.created_at, o.updated_at, o.finalized_at`

func scanOrder(s scanner, o *models.Order, extra ...interface{}) error {
	var phone sql.NullString
	var finalizedAt sql.NullTime
	dest := []interface{}{
		&o.ID, &o.TableNumber, &o.Status, &o.Discount, &phone, &o.Total, &o.NetTotal,
		&o.Version, &o.CreatedAt, &o.UpdatedAt, &finalizedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if phone.Valid {
		p := phone.String
		o.Phone = &p
	}
	if finalizedAt.Valid {
		t := finalizedAt.Time
		o.FinalizedAt = &t
	}
	return nil
}

func (r *orderRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	executor = r.exec(executor)
	query := `INSERT INTO orders
	            (table_number, status, discount, phone, total, net_total, version, created_at, updated_at, finalized_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Version == 0 {
		order.Version = 1
	}

	err := executor.QueryRow(query,
		order.TableNumber, order.Status, order.Discount, order.Phone, order.Total, order.NetTotal,
		order.Version, order.CreatedAt, order.UpdatedAt, order.FinalizedAt,
	).Scan(&order.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating order")
	}

	if err := r.ReplaceOrderItems(executor, order.ID, order.Items); err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *orderRepository) getOne(executor SQLExecutor, where string, lock bool, args ...interface{}) (*models.Order, error) {
	executor = r.exec(executor)
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}

	order := &models.Order{}
	if err := scanOrder(executor.QueryRow(query, args...), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order (%s): %v", ErrDatabaseError, where, err)
	}

	items, err := r.loadItems(executor, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = []models.OrderLine{}
	}
	return order, nil
}

func (r *orderRepository) GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error) {
	return r.getOne(executor, "o.id = $1", false, orderID)
}

// LockOrder reads the order and holds a row lock until the transaction ends.
func (r *orderRepository) LockOrder(executor SQLExecutor, orderID int64) (*models.Order, error) {
	return r.getOne(executor, "o.id = $1", true, orderID)
}

func (r *orderRepository) FindDraftByTable(executor SQLExecutor, tableNumber int, forUpdate bool) (*models.Order, error) {
	return r.getOne(executor, "o.table_number = $1 AND o.status = $2", forUpdate, tableNumber, models.OrderStatusDraft)
}

// FindActiveByTable returns the submitted or completed order of a table, locked.
func (r *orderRepository) FindActiveByTable(executor SQLExecutor, tableNumber int) (*models.Order, error) {
	return r.getOne(executor, "o.table_number = $1 AND o.status = ANY($2) ORDER BY o.created_at DESC LIMIT 1",
		true, tableNumber, pq.Array(statusStrings(models.ActiveOrderStatuses)))
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.TableNumber != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_number = $%d", argCounter))
		args = append(args, *filters.TableNumber)
		argCounter++
	}
	if len(filters.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("o.status = ANY($%d)", argCounter))
		args = append(args, pq.Array(statusStrings(filters.Statuses)))
		argCounter++
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(o.table_number::text = $%d OR o.phone ILIKE '%%' || $%d || '%%')", argCounter, argCounter))
		args = append(args, strings.TrimSpace(*filters.Search))
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.ParseInLocation("2006-01-02", *filters.Date, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid date filter format: %s, expected YYYY-MM-DD", *filters.Date)
		}
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
		args = append(args, parsedDate, parsedDate.AddDate(0, 0, 1))
		argCounter += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	if filters.Sort == "oldest" {
		queryBuilder.WriteString(" ORDER BY o.created_at ASC, o.id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")
	}

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}

	items, err := r.loadItems(r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderLine{}
		}
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrder(executor SQLExecutor, order *models.Order) error {
	executor = r.exec(executor)
	query := `UPDATE orders SET
	            status = $1, discount = $2, phone = $3, total = $4, net_total = $5,
	            version = $6, updated_at = $7, finalized_at = $8
	          WHERE id = $9`
	order.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		order.Status, order.Discount, order.Phone, order.Total, order.NetTotal,
		order.Version, order.UpdatedAt, order.FinalizedAt, order.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating order %d", order.ID))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order update ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- OrderItem Methods ---

// ReplaceOrderItems swaps the stored lines of an order for items, keeping their order.
func (r *orderRepository) ReplaceOrderItems(executor SQLExecutor, orderID int64, items []models.OrderLine) error {
	executor = r.exec(executor)
	if _, err := executor.Exec(`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("%w: clearing items of order %d: %v", ErrDatabaseError, orderID, err)
	}

	query := `INSERT INTO order_items (order_id, position, menu_item_id, name, price, image, qty)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for pos, item := range items {
		if _, err := executor.Exec(query, orderID, pos, item.MenuItemID, item.Name, item.Price, item.Image, item.Qty); err != nil {
			return wrapWriteError(err, fmt.Sprintf("creating item %d of order %d", item.MenuItemID, orderID))
		}
	}
	return nil
}

func (r *orderRepository) loadItems(executor SQLExecutor, orderIDs []int64) (map[int64][]models.OrderLine, error) {
	out := make(map[int64][]models.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	query := `SELECT order_id, menu_item_id, name, price, image, qty
	          FROM order_items
	          WHERE order_id = ANY($1)
	          ORDER BY order_id, position`
	rows, err := executor.Query(query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var line models.OrderLine
		if err := rows.Scan(&orderID, &line.MenuItemID, &line.Name, &line.Price, &line.Image, &line.Qty); err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		out[orderID] = append(out[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return out, nil
}

// DeleteOrdersByStatus hard-deletes every order in one of statuses. Items cascade.
func (r *orderRepository) DeleteOrdersByStatus(executor SQLExecutor, statuses []models.OrderStatus) (int64, error) {
	executor = r.exec(executor)
	result, err := executor.Exec(`DELETE FROM orders WHERE status = ANY($1)`, pq.Array(statusStrings(statuses)))
	if err != nil {
		return 0, fmt.Errorf("%w: deleting orders by status: %v", ErrDatabaseError, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for order purge: %v", ErrDatabaseError, err)
	}
	return rowsAffected, nil
}

func statusStrings(statuses []models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

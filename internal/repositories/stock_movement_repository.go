package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
)

// StockMovementRepository defines the interface for stock movement database operations.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(menuItemID int64, page, pageSize int) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO stock_movements (menu_item_id, quantity_changed, reason, order_id, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		movement.MenuItemID, movement.QuantityChanged, movement.Reason,
		movement.OrderID, movement.CreatedBy, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating stock movement for menu item %d", movement.MenuItemID))
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(menuItemID int64, page, pageSize int) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	query := `SELECT id, menu_item_id, quantity_changed, reason, order_id, created_by, created_at,
	                 COUNT(*) OVER() AS total_count
	          FROM stock_movements
	          WHERE menu_item_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, menuItemID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var orderID, createdBy sql.NullInt64
		if err := rows.Scan(&m.ID, &m.MenuItemID, &m.QuantityChanged, &m.Reason, &orderID, &createdBy, &m.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		if orderID.Valid {
			m.OrderID = &orderID.Int64
		}
		if createdBy.Valid {
			m.CreatedBy = &createdBy.Int64
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}

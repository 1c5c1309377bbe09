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

// MenuRepository defines the interface for menu-related database operations.
type MenuRepository interface {
	CreateItem(executor SQLExecutor, item *models.MenuItem) (int64, error)
	GetItemByID(executor SQLExecutor, id int64) (*models.MenuItem, error)
	GetItemsByIDs(executor SQLExecutor, ids []int64) (map[int64]models.MenuItem, error)
	GetItems(search *string) ([]models.MenuItem, error)
	UpdateItem(executor SQLExecutor, item *models.MenuItem) error
	DeleteItem(executor SQLExecutor, id int64) error
	AdjustStock(executor SQLExecutor, itemID int64, quantityChange int) (int, error) // Returns new stock level, never below 0
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

const menuColumns = `id, name, price, stock, image, created_at, updated_at`

func scanMenuItem(s scanner, item *models.MenuItem) error {
	return s.Scan(&item.ID, &item.Name, &item.Price, &item.Stock, &item.Image, &item.CreatedAt, &item.UpdatedAt)
}

func (r *menuRepository) CreateItem(executor SQLExecutor, item *models.MenuItem) (int64, error) {
	query := `INSERT INTO menu_items (name, price, stock, image, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	item.CreatedAt, item.UpdatedAt = currentTime, currentTime
	err := r.exec(executor).QueryRow(query, item.Name, item.Price, item.Stock, item.Image, currentTime, currentTime).Scan(&item.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating menu item '%s'", item.Name))
	}
	return item.ID, nil
}

func (r *menuRepository) GetItemByID(executor SQLExecutor, id int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`
	if err := scanMenuItem(r.exec(executor).QueryRow(query, id), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

// GetItemsByIDs returns the known items among ids, keyed by id. Missing ids are simply absent.
func (r *menuRepository) GetItemsByIDs(executor SQLExecutor, ids []int64) (map[int64]models.MenuItem, error) {
	out := make(map[int64]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ANY($1)`
	rows, err := r.exec(executor).Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: getting menu items by IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MenuItem
		if err := scanMenuItem(rows, &item); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		out[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *menuRepository) GetItems(search *string) ([]models.MenuItem, error) {
	items := []models.MenuItem{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + menuColumns + ` FROM menu_items`)
	var args []interface{}
	if search != nil && strings.TrimSpace(*search) != "" {
		queryBuilder.WriteString(" WHERE name ILIKE '%' || $1 || '%'")
		args = append(args, strings.TrimSpace(*search))
	}
	queryBuilder.WriteString(" ORDER BY name")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getting menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MenuItem
		if err := scanMenuItem(rows, &item); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *menuRepository) UpdateItem(executor SQLExecutor, item *models.MenuItem) error {
	query := `UPDATE menu_items SET name = $1, price = $2, stock = $3, image = $4, updated_at = $5 WHERE id = $6`
	item.UpdatedAt = time.Now()
	result, err := r.exec(executor).Exec(query, item.Name, item.Price, item.Stock, item.Image, item.UpdatedAt, item.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating menu item ID %d", item.ID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) DeleteItem(executor SQLExecutor, id int64) error {
	result, err := r.exec(executor).Exec(`DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting menu item ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) AdjustStock(executor SQLExecutor, itemID int64, quantityChange int) (int, error) {
	var newStock int
	query := `UPDATE menu_items
	          SET stock = GREATEST(stock + $1, 0), updated_at = $2
	          WHERE id = $3
	          RETURNING stock`
	err := r.exec(executor).QueryRow(query, quantityChange, time.Now(), itemID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: updating stock for menu item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return newStock, nil
}

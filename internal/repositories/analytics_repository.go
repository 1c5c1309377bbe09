package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
)

// AnalyticsRepository aggregates finalized orders. An order is dated by its
// finalization time, or its creation time when that is missing.
type AnalyticsRepository interface {
	SumNetTotal(from, to time.Time) (int64, error)                 // [from, to)
	DailyTotals(from, to time.Time) ([]models.DailyTotal, error)   // only days with sales, ascending
	BestSellers(limit int) ([]models.BestSeller, error)
	HighestSalesDay() (*models.HighestSalesDay, error)
}

type analyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new instance of AnalyticsRepository.
func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

const billedAt = `COALESCE(o.finalized_at, o.created_at)`

func (r *analyticsRepository) SumNetTotal(from, to time.Time) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(o.net_total), 0)
	          FROM orders o
	          WHERE o.status = 'finalized' AND ` + billedAt + ` >= $1 AND ` + billedAt + ` < $2`
	if err := r.db.QueryRow(query, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing net totals: %v", ErrDatabaseError, err)
	}
	return total, nil
}

func (r *analyticsRepository) DailyTotals(from, to time.Time) ([]models.DailyTotal, error) {
	totals := []models.DailyTotal{}
	query := `SELECT to_char(date_trunc('day', ` + billedAt + `), 'YYYY-MM-DD') AS day, SUM(o.net_total)
	          FROM orders o
	          WHERE o.status = 'finalized' AND ` + billedAt + ` >= $1 AND ` + billedAt + ` < $2
	          GROUP BY day
	          ORDER BY day`
	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: getting daily totals: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.DailyTotal
		if err := rows.Scan(&d.Date, &d.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning daily total: %v", ErrDatabaseError, err)
		}
		totals = append(totals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

func (r *analyticsRepository) BestSellers(limit int) ([]models.BestSeller, error) {
	sellers := []models.BestSeller{}
	query := `SELECT oi.menu_item_id, MAX(oi.name), SUM(oi.qty) AS sold
	          FROM order_items oi
	          JOIN orders o ON o.id = oi.order_id
	          WHERE o.status = 'finalized'
	          GROUP BY oi.menu_item_id
	          ORDER BY sold DESC, oi.menu_item_id
	          LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: getting best sellers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.BestSeller
		if err := rows.Scan(&b.MenuItemID, &b.Name, &b.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning best seller: %v", ErrDatabaseError, err)
		}
		sellers = append(sellers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating best sellers: %v", ErrDatabaseError, err)
	}
	return sellers, nil
}

func (r *analyticsRepository) HighestSalesDay() (*models.HighestSalesDay, error) {
	var day string
	var total int64
	query := `SELECT to_char(date_trunc('day', ` + billedAt + `), 'YYYY-MM-DD') AS day, SUM(o.net_total) AS total
	          FROM orders o
	          WHERE o.status = 'finalized'
	          GROUP BY day
	          ORDER BY total DESC, day DESC
	          LIMIT 1`
	if err := r.db.QueryRow(query).Scan(&day, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.HighestSalesDay{}, nil
		}
		return nil, fmt.Errorf("%w: getting highest sales day: %v", ErrDatabaseError, err)
	}
	return &models.HighestSalesDay{Date: &day, Total: total}, nil
}

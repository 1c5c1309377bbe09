package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
)

// TableRepository defines the interface for dining table database operations.
type TableRepository interface {
	CreateTable(table *models.Table) error
	GetTables() ([]models.Table, error)
	GetTableByID(executor SQLExecutor, id int, forUpdate bool) (*models.Table, error)
	SetStatus(executor SQLExecutor, id int, status models.TableStatus, occupiedAt *time.Time) error
	DeleteTable(id int) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func scanTable(s scanner, t *models.Table) error {
	var occupiedAt sql.NullTime
	if err := s.Scan(&t.ID, &t.Status, &occupiedAt, &t.CreatedAt); err != nil {
		return err
	}
	if occupiedAt.Valid {
		t.OccupiedAt = &occupiedAt.Time
	}
	return nil
}

func (r *tableRepository) CreateTable(table *models.Table) error {
	table.CreatedAt = time.Now()
	if table.Status == "" {
		table.Status = models.TableStatusVacant
	}
	query := `INSERT INTO dining_tables (id, status, occupied_at, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(query, table.ID, table.Status, table.OccupiedAt, table.CreatedAt); err != nil {
		return wrapWriteError(err, fmt.Sprintf("creating table %d", table.ID))
	}
	return nil
}

func (r *tableRepository) GetTables() ([]models.Table, error) {
	tables := []models.Table{}
	rows, err := r.db.Query(`SELECT id, status, occupied_at, created_at FROM dining_tables ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: getting tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating tables: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) GetTableByID(executor SQLExecutor, id int, forUpdate bool) (*models.Table, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT id, status, occupied_at, created_at FROM dining_tables WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t := &models.Table{}
	if err := scanTable(executor.QueryRow(query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table %d: %v", ErrDatabaseError, id, err)
	}
	return t, nil
}

func (r *tableRepository) SetStatus(executor SQLExecutor, id int, status models.TableStatus, occupiedAt *time.Time) error {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`UPDATE dining_tables SET status = $1, occupied_at = $2 WHERE id = $3`, status, occupiedAt, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating table %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) DeleteTable(id int) error {
	result, err := r.db.Exec(`DELETE FROM dining_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting table %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

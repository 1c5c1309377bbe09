package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
)

// CreateTableRequest DTO
type CreateTableRequest struct {
	ID int `json:"id" binding:"required,gt=0"`
}

// TableService tracks which tables are occupied and since when.
type TableService interface {
	CreateTable(req CreateTableRequest) (*models.Table, error)
	GetTables() ([]models.Table, error)
	DeleteTable(id int) error
	// ToggleTable flips vacant and occupied. It does not look at the table's orders.
	ToggleTable(id int) (*models.Table, error)
}

type tableService struct {
	tableRepo repositories.TableRepository
	tx        repositories.Transactor
	now       func() time.Time
}

// NewTableService creates a new instance of TableService.
func NewTableService(repo repositories.TableRepository, tx repositories.Transactor) TableService {
	return &tableService{tableRepo: repo, tx: tx, now: time.Now}
}

func (s *tableService) CreateTable(req CreateTableRequest) (*models.Table, error) {
	if req.ID <= 0 {
		return nil, ErrInvalidTable
	}
	table := &models.Table{ID: req.ID, Status: models.TableStatusVacant}
	if err := s.tableRepo.CreateTable(table); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) && strings.Contains(err.Error(), repositories.ConstraintTablePrimaryKey) {
			return nil, fmt.Errorf("%w: %d", ErrTableExists, req.ID)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return table, nil
}

func (s *tableService) GetTables() ([]models.Table, error) {
	tables, err := s.tableRepo.GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	now := s.now()
	for i := range tables {
		tables[i].ElapsedSeconds = int64(tables[i].Elapsed(now) / time.Second)
	}
	return tables, nil
}

func (s *tableService) DeleteTable(id int) error {
	if err := s.tableRepo.DeleteTable(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return nil
}

func (s *tableService) ToggleTable(id int) (*models.Table, error) {
	var table *models.Table
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		current, err := s.tableRepo.GetTableByID(exec, id, true)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrTableNotFound
			}
			return fmt.Errorf("failed to load table: %w", err)
		}

		if current.Status == models.TableStatusOccupied {
			current.Status = models.TableStatusVacant
			current.OccupiedAt = nil
		} else {
			now := s.now()
			current.Status = models.TableStatusOccupied
			current.OccupiedAt = &now
		}
		if err := s.tableRepo.SetStatus(exec, current.ID, current.Status, current.OccupiedAt); err != nil {
			return fmt.Errorf("failed to update table: %w", err)
		}
		table = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	table.ElapsedSeconds = int64(table.Elapsed(s.now()) / time.Second)
	return table, nil
}

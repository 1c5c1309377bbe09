package services

import (
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// --- Custom Service Errors for Menu ---
var (
	ErrItemNameExists = errors.New("menu item name already exists")
)

// --- Item DTOs ---
type CreateMenuItemRequest struct {
	Name  string `json:"name" binding:"required"`
	Price int64  `json:"price" binding:"required,gt=0"`
	Stock int    `json:"stock" binding:"gte=0"`
	Image string `json:"image"`
}

type UpdateMenuItemRequest struct {
	Name  *string `json:"name"` // Pointer to distinguish between empty and not provided
	Price *int64  `json:"price" binding:"omitempty,gt=0"`
	Stock *int    `json:"stock" binding:"omitempty,gte=0"`
	Image *string `json:"image"`
}

// --- MenuService Interface ---
type MenuService interface {
	CreateItem(userID int64, req CreateMenuItemRequest) (*models.MenuItem, error)
	GetItemByID(itemID int64) (*models.MenuItem, error)
	GetItems(search *string) ([]models.MenuItem, error)
	UpdateItem(userID, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	DeleteItem(itemID int64) error
	GetMovements(itemID int64, page, pageSize int) ([]models.StockMovement, int, error)
}

// --- menuService Implementation ---
type menuService struct {
	menuRepo     repositories.MenuRepository
	movementRepo repositories.StockMovementRepository
	tx           repositories.Transactor
}

func NewMenuService(repo repositories.MenuRepository, movements repositories.StockMovementRepository, tx repositories.Transactor) MenuService {
	return &menuService{
		menuRepo:     repo,
		movementRepo: movements,
		tx:           tx,
	}
}

func (s *menuService) CreateItem(userID int64, req CreateMenuItemRequest) (*models.MenuItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	item := &models.MenuItem{
		Name:  strings.TrimSpace(req.Name),
		Price: req.Price,
		Stock: req.Stock,
		Image: strings.TrimSpace(req.Image),
	}
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		if _, err := s.menuRepo.CreateItem(exec, item); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: '%s'", ErrItemNameExists, item.Name)
			}
			return fmt.Errorf("failed to create menu item: %w", err)
		}
		return s.recordAdjustment(exec, item.ID, item.Stock, userID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) GetItemByID(itemID int64) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetItemByID(nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

func (s *menuService) GetItems(search *string) ([]models.MenuItem, error) {
	items, err := s.menuRepo.GetItems(search)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	return items, nil
}

// UpdateItem applies the given fields. A stock change is recorded as an adjustment.
func (s *menuService) UpdateItem(userID, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	var item *models.MenuItem
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		current, err := s.menuRepo.GetItemByID(exec, itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMenuItemNotFound
			}
			return fmt.Errorf("failed to fetch menu item for update: %w", err)
		}

		stockDelta := 0
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return fmt.Errorf("%w: item name cannot be empty", ErrValidation)
			}
			current.Name = strings.TrimSpace(*req.Name)
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				return fmt.Errorf("%w: price must be positive", ErrValidation)
			}
			current.Price = *req.Price
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
			}
			stockDelta = *req.Stock - current.Stock
			current.Stock = *req.Stock
		}
		if req.Image != nil {
			current.Image = strings.TrimSpace(*req.Image)
		}

		if err := s.menuRepo.UpdateItem(exec, current); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: '%s'", ErrItemNameExists, current.Name)
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMenuItemNotFound
			}
			return fmt.Errorf("failed to update menu item: %w", err)
		}
		if err := s.recordAdjustment(exec, current.ID, stockDelta, userID); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) DeleteItem(itemID int64) error {
	if err := s.menuRepo.DeleteItem(nil, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return nil
}

func (s *menuService) GetMovements(itemID int64, page, pageSize int) ([]models.StockMovement, int, error) {
	if _, err := s.GetItemByID(itemID); err != nil {
		return nil, 0, err
	}
	movements, total, err := s.movementRepo.GetMovements(itemID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stock movements: %w", err)
	}
	return movements, total, nil
}

func (s *menuService) recordAdjustment(exec repositories.SQLExecutor, itemID int64, delta int, userID int64) error {
	if delta == 0 {
		return nil
	}
	movement := models.StockMovement{
		MenuItemID:      itemID,
		QuantityChanged: delta,
		Reason:          models.MovementAdjustment,
	}
	if userID > 0 {
		movement.CreatedBy = &userID
	}
	if _, err := s.movementRepo.CreateMovement(exec, &movement); err != nil {
		return fmt.Errorf("failed to record stock adjustment: %w", err)
	}
	return nil
}

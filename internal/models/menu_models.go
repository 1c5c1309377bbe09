package models

import "time"

// MenuItem represents a dish or drink on the restaurant menu.
// Price is in whole currency units. A stock of 0 means the item is unavailable.
type MenuItem struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	Price     int64     `json:"price" db:"price" binding:"required,gt=0"`
	Stock     int       `json:"stock" db:"stock" binding:"gte=0"`
	Image     string    `json:"image" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// InStock reports whether the item can currently be ordered.
func (m MenuItem) InStock() bool {
	return m.Stock > 0
}

// Stock movement reasons
const (
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
)

// StockMovement records a change in stock for a menu item
type StockMovement struct {
	ID              int64     `json:"id" db:"id"`
	MenuItemID      int64     `json:"menu_item_id" db:"menu_item_id"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reason          string    `json:"reason" db:"reason"`
	OrderID         *int64    `json:"order_id,omitempty" db:"order_id"`
	CreatedBy       *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

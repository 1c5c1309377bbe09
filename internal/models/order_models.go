package models

import "time"

// OrderStatus defines the type for order statuses
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusSaved     OrderStatus = "saved"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFinalized OrderStatus = "finalized"
	OrderStatusDeleted   OrderStatus = "deleted"
)

// IsValidOrderStatus checks if the provided status string is a valid OrderStatus.
func IsValidOrderStatus(status string) bool {
	switch OrderStatus(status) {
	case OrderStatusDraft,
		OrderStatusSaved,
		OrderStatusSubmitted,
		OrderStatusCompleted,
		OrderStatusFinalized,
		OrderStatusDeleted:
		return true
	default:
		return false
	}
}

// IsActive reports whether an order in this status blocks new orders for its table.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusSubmitted || s == OrderStatusCompleted
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFinalized || s == OrderStatusDeleted
}

// ActiveOrderStatuses lists the statuses that count as an active order.
var ActiveOrderStatuses = []OrderStatus{OrderStatusSubmitted, OrderStatusCompleted}

// OrderLine is one menu item on an order with a snapshot of its name, price and image.
type OrderLine struct {
	MenuItemID int64  `json:"menu_item_id" binding:"required"`
	Name       string `json:"name"`
	Price      int64  `json:"price" binding:"gte=0"`
	Image      string `json:"image"`
	Qty        int    `json:"qty" binding:"required,gte=1"`
}

// Order represents a table order at any point of its lifecycle
type Order struct {
	ID          int64       `json:"id" db:"id"`
	TableNumber int         `json:"table" db:"table_number"`
	Items       []OrderLine `json:"items"`
	Status      OrderStatus `json:"status" db:"status"`
	Discount    int         `json:"discount" db:"discount"`
	Phone       *string     `json:"phone,omitempty" db:"phone"`
	Total       int64       `json:"total" db:"total"`
	NetTotal    int64       `json:"net_total" db:"net_total"`
	Version     int64       `json:"version" db:"version"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty" db:"finalized_at"`
}

// PhoneValue returns the phone number or an empty string.
func (o *Order) PhoneValue() string {
	if o.Phone == nil {
		return ""
	}
	return *o.Phone
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	TableNumber *int          `form:"table"`
	Statuses    []OrderStatus `form:"status"`
	Search      *string       `form:"q"`     // Matches table number or phone
	Date        *string       `form:"date"`  // Expected format YYYY-MM-DD
	Sort        string        `form:"sort"`  // newest (default) or oldest
	Page        int           `form:"page"`
	PageSize    int           `form:"page_size"`
}

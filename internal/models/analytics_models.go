package models

// SalesSummary holds billed totals for the current day, week and month.
type SalesSummary struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
}

// DailyTotal is the billed net total for one calendar day.
type DailyTotal struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Total int64  `json:"total"`
}

// BestSeller is a menu item ranked by quantity sold.
type BestSeller struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Count      int64  `json:"count"`
}

// HighestSalesDay is the day with the largest billed total, if any.
type HighestSalesDay struct {
	Date  *string `json:"date"`
	Total int64   `json:"total"`
}

package posclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"restaurant_pos_backend/internal/models"
)

// Me returns the profile of the logged-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterRequest creates a staff account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// Register creates an admin or waiter account. Admin only.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendOTP asks for a password reset code. The server answers the same for unknown emails.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/send-otp", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password with a code from SendOTP.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	body := map[string]string{"email": email, "otp": otp, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// LoginSessions lists the latest session per user, device and address. Admin only.
func (c *Client) LoginSessions(ctx context.Context) ([]models.LoginSession, error) {
	var resp struct {
		Data []models.LoginSession `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/logins", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TerminateLoginSession logs out any session. Admin only.
func (c *Client) TerminateLoginSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/admin/logout/"+url.PathEscape(sessionID), nil, nil)
}

// CreateTable adds a table with the given number. Admin only.
func (c *Client) CreateTable(ctx context.Context, id int) (*models.Table, error) {
	var table models.Table
	if err := c.do(ctx, http.MethodPost, "/tables", map[string]int{"id": id}, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// DeleteTable removes a table. Admin only.
func (c *Client) DeleteTable(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, tablePath(id), nil, nil)
}

// MenuItemRequest creates a menu item.
type MenuItemRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
	Image string `json:"image,omitempty"`
}

// MenuItemPatch changes the fields that are set.
type MenuItemPatch struct {
	Name  *string `json:"name,omitempty"`
	Price *int64  `json:"price,omitempty"`
	Stock *int    `json:"stock,omitempty"`
	Image *string `json:"image,omitempty"`
}

func menuPath(id int64) string { return "/menu/" + strconv.FormatInt(id, 10) }

// CreateMenuItem adds an item to the menu. Admin only.
func (c *Client) CreateMenuItem(ctx context.Context, req MenuItemRequest) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.do(ctx, http.MethodPost, "/menu", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateMenuItem edits a menu item. Admin only.
func (c *Client) UpdateMenuItem(ctx context.Context, id int64, patch MenuItemPatch) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.do(ctx, http.MethodPut, menuPath(id), patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteMenuItem removes a menu item. Admin only.
func (c *Client) DeleteMenuItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, menuPath(id), nil, nil)
}

// MovementPage is one page of a menu item's stock history.
type MovementPage struct {
	Data     []models.StockMovement `json:"data"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// StockMovements lists the stock history of a menu item, newest first. Admin only.
func (c *Client) StockMovements(ctx context.Context, id int64, page, pageSize int) (*MovementPage, error) {
	path := menuPath(id) + "/movements"
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var resp MovementPage
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OrderPatch is the admin edit of an order. Nil fields are left alone.
type OrderPatch struct {
	Items    *[]models.OrderLine `json:"items,omitempty"`
	Discount *int                `json:"discount,omitempty"`
	Phone    *string             `json:"phone,omitempty"`
}

// UpdateOrder edits the items, discount or phone of an order. Admin only.
func (c *Client) UpdateOrder(ctx context.Context, orderID int64, patch OrderPatch) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPatch, orderPath(orderID), patch, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PurgeHistory wipes finalized and deleted orders and returns how many went.
// The server re-checks the caller's password. Admin only.
func (c *Client) PurgeHistory(ctx context.Context, password string) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/history/purge", map[string]string{"password": password}, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// SalesSummary returns today's, this week's and this month's billed totals.
func (c *Client) SalesSummary(ctx context.Context) (*models.SalesSummary, error) {
	var summary models.SalesSummary
	if err := c.do(ctx, http.MethodGet, "/analytics/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DailyTotals returns one total per day for the last days days. Zero uses the server default.
func (c *Client) DailyTotals(ctx context.Context, days int) ([]models.DailyTotal, error) {
	path := "/analytics/daily-totals"
	if days > 0 {
		path += "?range=" + strconv.Itoa(days)
	}
	var resp struct {
		Data []models.DailyTotal `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// BestSellers ranks menu items by quantity sold. Zero uses the server default.
func (c *Client) BestSellers(ctx context.Context, limit int) ([]models.BestSeller, error) {
	path := "/analytics/best-sellers"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Data []models.BestSeller `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TotalByDate returns the total billed on date, formatted YYYY-MM-DD.
func (c *Client) TotalByDate(ctx context.Context, date string) (*models.DailyTotal, error) {
	var total models.DailyTotal
	path := "/analytics/total-by-date?" + url.Values{"date": {date}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &total); err != nil {
		return nil, err
	}
	return &total, nil
}

// HighestSalesDay returns the day with the largest billed total. Date is nil when nothing was billed.
func (c *Client) HighestSalesDay(ctx context.Context) (*models.HighestSalesDay, error) {
	var day models.HighestSalesDay
	if err := c.do(ctx, http.MethodGet, "/analytics/highest-sales-day", nil, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

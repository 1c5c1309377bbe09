// Package posclient talks to the POS REST API. It carries the explicit
// login session (bearer token) and returns server failures as *APIError.
package posclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"restaurant_pos_backend/internal/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.StatusCode, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsConflict reports whether err is a 409 from the server.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// Session is the logged-in identity the client sends with every request.
type Session struct {
	Token     string
	SessionID string
	User      models.User
	ExpiresAt time.Time
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with an existing bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.session = &Session{Token: token} }
}

// New returns a client for baseURL, e.g. "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current login session, nil when logged out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

type loginResponse struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	SessionID   string      `json:"session_id"`
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	s := &Session{Token: resp.AccessToken, SessionID: resp.SessionID, User: resp.User, ExpiresAt: resp.ExpiresAt}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return c.Session(), nil
}

// Logout ends the login session on the server and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return err
}

// Menu lists menu items, optionally filtered by name.
func (c *Client) Menu(ctx context.Context, search string) ([]models.MenuItem, error) {
	path := "/menu"
	if search != "" {
		path += "?" + url.Values{"q": {search}}.Encode()
	}
	var resp struct {
		Data []models.MenuItem `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MenuItem fetches one menu item.
func (c *Client) MenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.do(ctx, http.MethodGet, menuPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Tables lists all tables with their occupancy.
func (c *Client) Tables(ctx context.Context) ([]models.Table, error) {
	var resp struct {
		Data []models.Table `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ToggleTable flips a table between vacant and occupied.
func (c *Client) ToggleTable(ctx context.Context, id int) (*models.Table, error) {
	var table models.Table
	if err := c.do(ctx, http.MethodPut, "/tables/"+strconv.Itoa(id)+"/toggle", nil, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// OrderQuery filters order listings. Zero values are omitted.
type OrderQuery struct {
	Table    int
	Statuses []models.OrderStatus
	Search   string
	Date     string
	Sort     string
	Page     int
	PageSize int
}

func (q OrderQuery) encode() string {
	v := url.Values{}
	if q.Table > 0 {
		v.Set("table", strconv.Itoa(q.Table))
	}
	if len(q.Statuses) > 0 {
		parts := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Data     []models.Order `json:"data"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Orders lists orders.
func (c *Client) Orders(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	var page OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders"+q.encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// History lists finalized and deleted orders.
func (c *Client) History(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	q.Statuses = nil
	var page OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders/history"+q.encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Order fetches one order.
func (c *Client) Order(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, orderPath(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DraftRequest is the full state of a table's draft.
type DraftRequest struct {
	Table   int                `json:"table"`
	Items   []models.OrderLine `json:"items"`
	Phone   string             `json:"phone"`
	Version int64              `json:"version"`
}

// UpsertDraft stores the complete draft of a table and returns it with its new version.
func (c *Client) UpsertDraft(ctx context.Context, req DraftRequest) (*models.Order, error) {
	if req.Items == nil {
		req.Items = []models.OrderLine{}
	}
	var order models.Order
	if err := c.do(ctx, http.MethodPut, "/orders/draft", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Draft returns the table's draft. A table without one yields an empty draft with version 0.
func (c *Client) Draft(ctx context.Context, table int) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, tablePath(table)+"/draft", nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveDraft moves the table's draft to saved.
func (c *Client) SaveDraft(ctx context.Context, table int) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, tablePath(table)+"/draft/save", nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FinalizeRequest freezes an order with its bill.
type FinalizeRequest struct {
	Items    []models.OrderLine `json:"items"`
	Discount int                `json:"discount"`
	Phone    string             `json:"phone"`
	Total    *int64             `json:"total,omitempty"`
	NetTotal *int64             `json:"net_total,omitempty"`
}

// Finalize freezes an order. Admin only.
func (c *Client) Finalize(ctx context.Context, orderID int64, req FinalizeRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, orderPath(orderID)+"/finalize", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus moves an order along the kitchen flow. Admin only.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPatch, orderPath(orderID)+"/status", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder soft-deletes an order. Admin only.
func (c *Client) DeleteOrder(ctx context.Context, orderID int64) error {
	return c.do(ctx, http.MethodDelete, orderPath(orderID), nil, nil)
}

func orderPath(id int64) string { return "/orders/" + strconv.FormatInt(id, 10) }
func tablePath(id int) string   { return "/tables/" + strconv.Itoa(id) }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == nil {
		return &APIError{StatusCode: status, Code: http.StatusText(status), Message: strings.TrimSpace(string(data))}
	}
	envelope.Error.StatusCode = status
	return envelope.Error
}

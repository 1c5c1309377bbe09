package posclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"restaurant_pos_backend/internal/models"
)

type recordedCall struct {
	method string
	uri    string
	body   map[string]interface{}
}

// recordingServer answers every request with reply and remembers the last request.
func recordingServer(t *testing.T, reply interface{}) (*Client, func() recordedCall) {
	t.Helper()
	var mu sync.Mutex
	var last recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{method: r.Method, uri: r.URL.RequestURI()}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &call.body); err != nil {
				t.Errorf("request body is not a JSON object: %s", data)
			}
		}
		mu.Lock()
		last = call
		mu.Unlock()
		writeJSON(w, http.StatusOK, reply)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, WithToken("tok")), func() recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestAdminCalls(t *testing.T) {
	price := int64(150)
	discount := 20
	lines := []models.OrderLine{{MenuItemID: 1, Qty: 2}}

	tests := []struct {
		name       string
		reply      interface{}
		call       func(ctx context.Context, c *Client) (interface{}, error)
		wantMethod string
		wantURI    string
		wantBody   map[string]interface{}
		want       interface{}
	}{
		{
			name:  "me",
			reply: map[string]interface{}{"id": 3, "email": "a@pos.local", "role": "admin"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				u, err := c.Me(ctx)
				if err != nil {
					return nil, err
				}
				return u.Email, nil
			},
			wantMethod: http.MethodGet,
			wantURI:    "/auth/me",
			want:       "a@pos.local",
		},
		{
			name:  "register",
			reply: map[string]interface{}{"id": 9, "email": "w@pos.local", "role": "waiter"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				u, err := c.Register(ctx, RegisterRequest{Email: "w@pos.local", Password: "secret123", Role: "waiter"})
				if err != nil {
					return nil, err
				}
				return u.ID, nil
			},
			wantMethod: http.MethodPost,
			wantURI:    "/auth/register",
			wantBody:   map[string]interface{}{"email": "w@pos.local", "password": "secret123", "role": "waiter"},
			want:       int64(9),
		},
		{
			name:  "send otp",
			reply: map[string]string{"message": "ok"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return nil, c.SendOTP(ctx, "a@pos.local")
			},
			wantMethod: http.MethodPost,
			wantURI:    "/auth/send-otp",
			wantBody:   map[string]interface{}{"email": "a@pos.local"},
		},
		{
			name:  "reset password",
			reply: map[string]string{"message": "ok"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return nil, c.ResetPassword(ctx, "a@pos.local", "123456", "newsecret1")
			},
			wantMethod: http.MethodPost,
			wantURI:    "/auth/reset-password",
			wantBody:   map[string]interface{}{"email": "a@pos.local", "otp": "123456", "new_password": "newsecret1"},
		},
		{
			name: "login sessions",
			reply: map[string]interface{}{"data": []map[string]interface{}{
				{"id": "6f1c2b1e-8d0a-4c1e-9a55-0c7f6b1d2e3f", "email": "w@pos.local", "os": "Android"},
			}},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				sessions, err := c.LoginSessions(ctx)
				if err != nil {
					return nil, err
				}
				return len(sessions), nil
			},
			wantMethod: http.MethodGet,
			wantURI:    "/admin/logins",
			want:       1,
		},
		{
			name:  "terminate login session",
			reply: map[string]string{"message": "Session logged out."},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return nil, c.TerminateLoginSession(ctx, "6f1c2b1e")
			},
			wantMethod: http.MethodPost,
			wantURI:    "/admin/logout/6f1c2b1e",
		},
		{
			name:  "create table",
			reply: map[string]interface{}{"id": 7, "status": "vacant"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				table, err := c.CreateTable(ctx, 7)
				if err != nil {
					return nil, err
				}
				return table.ID, nil
			},
			wantMethod: http.MethodPost,
			wantURI:    "/tables",
			wantBody:   map[string]interface{}{"id": float64(7)},
			want:       7,
		},
		{
			name:  "delete table",
			reply: map[string]string{"message": "Table deleted successfully"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return nil, c.DeleteTable(ctx, 7)
			},
			wantMethod: http.MethodDelete,
			wantURI:    "/tables/7",
		},
		{
			name:  "create menu item",
			reply: map[string]interface{}{"id": 12, "name": "Paneer Tikka", "price": 220, "stock": 5},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				item, err := c.CreateMenuItem(ctx, MenuItemRequest{Name: "Paneer Tikka", Price: 220, Stock: 5})
				if err != nil {
					return nil, err
				}
				return item.ID, nil
			},
			wantMethod: http.MethodPost,
			wantURI:    "/menu",
			wantBody:   map[string]interface{}{"name": "Paneer Tikka", "price": float64(220), "stock": float64(5)},
			want:       int64(12),
		},
		{
			name:  "update menu item sends only set fields",
			reply: map[string]interface{}{"id": 12, "name": "Paneer Tikka", "price": 150},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				item, err := c.UpdateMenuItem(ctx, 12, MenuItemPatch{Price: &price})
				if err != nil {
					return nil, err
				}
				return item.Price, nil
			},
			wantMethod: http.MethodPut,
			wantURI:    "/menu/12",
			wantBody:   map[string]interface{}{"price": float64(150)},
			want:       int64(150),
		},
		{
			name:  "delete menu item",
			reply: map[string]string{"message": "Menu item deleted successfully"},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return nil, c.DeleteMenuItem(ctx, 12)
			},
			wantMethod: http.MethodDelete,
			wantURI:    "/menu/12",
		},
		{
			name:  "stock movements",
			reply: map[string]interface{}{"data": []map[string]interface{}{{"id": 1, "menu_item_id": 12, "quantity_changed": -2}}, "total": 1, "page": 2, "page_size": 5},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				page, err := c.StockMovements(ctx, 12, 2, 5)
				if err != nil {
					return nil, err
				}
				return page.Data[0].QuantityChanged, nil
			},
			wantMethod: http.MethodGet,
			wantURI:    "/menu/12/movements?page=2&page_size=5",
			want:       -2,
		},
		{
			name:  "update order",
			reply: map[string]interface{}{"id": 44, "discount": 20},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				order, err := c.UpdateOrder(ctx, 44, OrderPatch{Items: &lines, Discount: &discount})
				if err != nil {
					return nil, err
				}
				return order.Discount, nil
			},
			wantMethod: http.MethodPatch,
			wantURI:    "/orders/44",
			wantBody: map[string]interface{}{
				"discount": float64(20),
				"items":    []interface{}{map[string]interface{}{"menu_item_id": float64(1), "name": "", "price": float64(0), "image": "", "qty": float64(2)}},
			},
			want: 20,
		},
		{
			name:  "purge history",
			reply: map[string]interface{}{"message": "Billing history cleared", "deleted": 31},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return c.PurgeHistory(ctx, "secret123")
			},
			wantMethod: http.MethodPost,
			wantURI:    "/orders/history/purge",
			wantBody:   map[string]interface{}{"password": "secret123"},
			want:       int64(31),
		},
		{
			name:  "sales summary",
			reply: map[string]interface{}{"today": 500, "week": 2500, "month": 9000},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				s, err := c.SalesSummary(ctx)
				if err != nil {
					return nil, err
				}
				return *s, nil
			},
			wantMethod: http.MethodGet,
			wantURI:    "/analytics/summary",
			want:       models.SalesSummary{Today: 500, Week: 2500, Month: 9000},
		},
		{
			name:  "daily totals",
			reply: map[string]interface{}{"data": []map[string]interface{}{{"date": "2026-10-15", "total": 800}, {"date": "2026-10-16", "total": 0}}},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return c.DailyTotals(ctx, 2)
			},
			wantMethod: http.MethodGet,
			wantURI:    "/analytics/daily-totals?range=2",
			want:       []models.DailyTotal{{Date: "2026-10-15", Total: 800}, {Date: "2026-10-16", Total: 0}},
		},
		{
			name:  "best sellers default limit",
			reply: map[string]interface{}{"data": []map[string]interface{}{{"menu_item_id": 1, "name": "Dal", "count": 40}}},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				return c.BestSellers(ctx, 0)
			},
			wantMethod: http.MethodGet,
			wantURI:    "/analytics/best-sellers",
			want:       []models.BestSeller{{MenuItemID: 1, Name: "Dal", Count: 40}},
		},
		{
			name:  "total by date",
			reply: map[string]interface{}{"date": "2026-10-15", "total": 800},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				d, err := c.TotalByDate(ctx, "2026-10-15")
				if err != nil {
					return nil, err
				}
				return *d, nil
			},
			wantMethod: http.MethodGet,
			wantURI:    "/analytics/total-by-date?date=2026-10-15",
			want:       models.DailyTotal{Date: "2026-10-15", Total: 800},
		},
		{
			name:  "highest sales day with no sales",
			reply: map[string]interface{}{"date": nil, "total": 0},
			call: func(ctx context.Context, c *Client) (interface{}, error) {
				d, err := c.HighestSalesDay(ctx)
				if err != nil {
					return nil, err
				}
				return d.Date == nil, nil
			},
			wantMethod: http.MethodGet,
			wantURI:    "/analytics/highest-sales-day",
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, last := recordingServer(t, tt.reply)
			got, err := tt.call(context.Background(), client)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			req := last()
			if req.method != tt.wantMethod || req.uri != tt.wantURI {
				t.Errorf("request = %s %s, want %s %s", req.method, req.uri, tt.wantMethod, tt.wantURI)
			}
			if !reflect.DeepEqual(req.body, tt.wantBody) {
				t.Errorf("body = %#v, want %#v", req.body, tt.wantBody)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("result = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestPurgeHistoryWrongPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Password is incorrect.", "")
	}))
	defer srv.Close()

	deleted, err := New(srv.URL).PurgeHistory(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

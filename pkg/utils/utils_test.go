package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/gin-gonic/gin/binding"
)

func TestIsValidMobile(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"1234567890", false}, // bad leading digit
		{"98765432", false},   // too short
		{"98765432101", false},
		{"98765abcde", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidMobile(tt.phone); got != tt.want {
			t.Errorf("IsValidMobile(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"98765 43210", "9876543210"},
		{"(987) 654-3210 ext 9", "9876543210"},
		{"abc", ""},
		{"98765432109999", "9876543210"},
	}
	for _, tt := range tests {
		if got := SanitizePhone(tt.raw); got != tt.want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, expiresAt, err := m.GenerateAccessToken(42, "waiter@example.com", "waiter", "sess-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != 42 || claims.Role != "waiter" || claims.SessionID != "sess-1" {
		t.Errorf("claims = %+v", claims)
	}

	other := NewJWTManager("another-secret", time.Hour)
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.GenerateAccessToken(1, "a@b.in", "admin", "s")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	m.now = time.Now
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestRegisteredBindingTags(t *testing.T) {
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators() error = %v", err)
	}

	type bill struct {
		Discount int    `binding:"discount_step"`
		Phone    string `binding:"omitempty,in_mobile"`
	}
	tests := []struct {
		name string
		in   bill
		ok   bool
	}{
		{"no discount no phone", bill{}, true},
		{"top step", bill{Discount: 50, Phone: "9876543210"}, true},
		{"between steps", bill{Discount: 25}, false},
		{"above the steps", bill{Discount: 60}, false},
		{"negative", bill{Discount: -10}, false},
		{"bad phone", bill{Phone: "12345"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.in)
			if (err == nil) != tt.ok {
				t.Errorf("ValidateStruct(%+v) error = %v, want ok=%v", tt.in, err, tt.ok)
			}
		})
	}
}

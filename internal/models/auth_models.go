package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleWaiter = "waiter"
)

// IsValidRole checks if the role name is one the system knows.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleWaiter
}

// User represents a staff account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// LoginSession is one login of a user on one device.
type LoginSession struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       int64      `json:"user_id" db:"user_id"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	IP           string     `json:"ip" db:"ip"`
	UserAgent    string     `json:"user_agent" db:"user_agent"`
	OS           string     `json:"os" db:"os"`
	Browser      string     `json:"browser" db:"browser"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastSeenAt   time.Time  `json:"last_seen_at" db:"last_seen_at"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty" db:"terminated_at"`
}

// Active reports whether the session has not been logged out.
func (s LoginSession) Active() bool {
	return s.TerminatedAt == nil
}

// PasswordResetOTP is a one-time code issued for a password reset.
type PasswordResetOTP struct {
	ID         uuid.UUID  `db:"id"`
	UserID     int64      `db:"user_id"`
	CodeHash   string     `db:"code_hash"`
	Attempts   int        `db:"attempts"`
	ExpiresAt  time.Time  `db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

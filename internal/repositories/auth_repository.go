package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/google/uuid"
)

// AuthRepository defines the interface for user accounts and password reset codes.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByEmail(email string) (*models.User, error) // PasswordHash is populated
	FindUserByID(userID int64) (*models.User, error)    // PasswordHash is populated
	UpdatePassword(executor SQLExecutor, userID int64, hashedPassword string) error

	CreateOTP(executor SQLExecutor, otp *models.PasswordResetOTP) error
	FindLatestOTP(executor SQLExecutor, userID int64) (*models.PasswordResetOTP, error) // Newest unconsumed code, locked
	IncrementOTPAttempts(executor SQLExecutor, otpID uuid.UUID) error
	ConsumeOTP(executor SQLExecutor, otpID uuid.UUID) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

// CreateUser inserts a new user. Emails are stored lower-cased.
// IsActive is set to true by default. CreatedAt and UpdatedAt are set to the current time.
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (email, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = currentTime, currentTime

	err := r.exec(executor).QueryRow(
		query,
		user.Email,
		hashedPassword,
		user.FullName, // Can be nil
		user.Role,
		user.IsActive,
		currentTime,
		currentTime,
	).Scan(&user.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating user")
	}
	return user.ID, nil
}

const userColumns = `id, email, password_hash, full_name, role, is_active, created_at, updated_at`

func (r *authRepository) findUser(where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var fullName sql.NullString
	err := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &fullName, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound // Use the common repository error
		}
		return nil, fmt.Errorf("%w: finding user (%s): %v", ErrDatabaseError, where, err)
	}
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	return user, nil
}

// FindUserByEmail retrieves a user by email, case-insensitively.
func (r *authRepository) FindUserByEmail(email string) (*models.User, error) {
	return r.findUser("email = $1", strings.ToLower(strings.TrimSpace(email)))
}

// FindUserByID retrieves a user by their ID.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	return r.findUser("id = $1", userID)
}

func (r *authRepository) UpdatePassword(executor SQLExecutor, userID int64, hashedPassword string) error {
	result, err := r.exec(executor).Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hashedPassword, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: updating password for user %d: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Password reset codes ---

func (r *authRepository) CreateOTP(executor SQLExecutor, otp *models.PasswordResetOTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	query := `INSERT INTO password_reset_otps (id, user_id, code_hash, attempts, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.exec(executor).Exec(query, otp.ID, otp.UserID, otp.CodeHash, otp.Attempts, otp.ExpiresAt, otp.CreatedAt); err != nil {
		return wrapWriteError(err, fmt.Sprintf("creating reset code for user %d", otp.UserID))
	}
	return nil
}

func (r *authRepository) FindLatestOTP(executor SQLExecutor, userID int64) (*models.PasswordResetOTP, error) {
	otp := &models.PasswordResetOTP{}
	var consumedAt sql.NullTime
	query := `SELECT id, user_id, code_hash, attempts, expires_at, consumed_at, created_at
	          FROM password_reset_otps
	          WHERE user_id = $1 AND consumed_at IS NULL
	          ORDER BY created_at DESC
	          LIMIT 1
	          FOR UPDATE`
	err := r.exec(executor).QueryRow(query, userID).Scan(
		&otp.ID, &otp.UserID, &otp.CodeHash, &otp.Attempts, &otp.ExpiresAt, &consumedAt, &otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding reset code for user %d: %v", ErrDatabaseError, userID, err)
	}
	if consumedAt.Valid {
		otp.ConsumedAt = &consumedAt.Time
	}
	return otp, nil
}

func (r *authRepository) IncrementOTPAttempts(executor SQLExecutor, otpID uuid.UUID) error {
	if _, err := r.exec(executor).Exec(`UPDATE password_reset_otps SET attempts = attempts + 1 WHERE id = $1`, otpID); err != nil {
		return fmt.Errorf("%w: counting reset code attempt: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *authRepository) ConsumeOTP(executor SQLExecutor, otpID uuid.UUID) error {
	if _, err := r.exec(executor).Exec(`UPDATE password_reset_otps SET consumed_at = $1 WHERE id = $2`, time.Now(), otpID); err != nil {
		return fmt.Errorf("%w: consuming reset code: %v", ErrDatabaseError, err)
	}
	return nil
}

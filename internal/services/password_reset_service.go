package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidOTP      = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

const (
	otpDigits      = 6
	maxOTPAttempts = 5
)

// SendOTPRequest DTO
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest DTO
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// PasswordResetService issues one-time codes and resets passwords with them.
type PasswordResetService interface {
	SendOTP(ctx context.Context, req SendOTPRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type passwordResetService struct {
	authRepo repositories.AuthRepository
	sessions repositories.SessionRepository
	tx       repositories.Transactor
	notifier events.Notifier
	ttl      time.Duration
	now      func() time.Time
	newCode  func() (string, error)
}

// NewPasswordResetService creates a new instance of PasswordResetService. ttl is the code lifetime.
func NewPasswordResetService(
	ar repositories.AuthRepository,
	sr repositories.SessionRepository,
	tx repositories.Transactor,
	notifier events.Notifier,
	ttl time.Duration,
) PasswordResetService {
	return &passwordResetService{
		authRepo: ar,
		sessions: sr,
		tx:       tx,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
		newCode:  generateOTP,
	}
}

// SendOTP issues a code for the account. Unknown and inactive accounts get
// the same nil result and nothing is sent.
func (s *passwordResetService) SendOTP(ctx context.Context, req SendOTPRequest) error {
	user, err := s.authRepo.FindUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.LogInfo("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	otp := models.PasswordResetOTP{
		ID:        uuid.New(),
		UserID:    user.ID,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.ttl),
		CreatedAt: s.now(),
	}
	if err := s.authRepo.CreateOTP(nil, &otp); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	msg := events.OTPMessage{ID: otp.ID, Email: user.Email, Code: code, ExpiresAt: otp.ExpiresAt}
	if err := s.notifier.SendOTP(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver code: %w", err)
	}
	return nil
}

// ResetPassword checks the newest code of the account and, on a match, sets
// the new password and logs the account out everywhere.
func (s *passwordResetService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if !utils.IsValidPasswordLength(req.NewPassword, MinPasswordLength) {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	user, err := s.authRepo.FindUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// A wrong code still has to count, so the attempt is committed separately.
	var verifyErr error
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		otp, err := s.authRepo.FindLatestOTP(exec, user.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				verifyErr = ErrInvalidOTP
				return nil
			}
			return fmt.Errorf("failed to load code: %w", err)
		}
		if !s.now().Before(otp.ExpiresAt) {
			verifyErr = ErrInvalidOTP
			return nil
		}
		if otp.Attempts >= maxOTPAttempts {
			verifyErr = ErrTooManyAttempts
			return nil
		}
		if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(req.OTP)) != nil {
			verifyErr = ErrInvalidOTP
			return s.authRepo.IncrementOTPAttempts(exec, otp.ID)
		}

		if err := s.authRepo.ConsumeOTP(exec, otp.ID); err != nil {
			return err
		}
		if err := s.authRepo.UpdatePassword(exec, user.ID, string(newHash)); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if _, err := s.sessions.TerminateUserSessions(exec, user.ID); err != nil {
			return fmt.Errorf("failed to log out sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if verifyErr != nil {
		return verifyErr
	}
	utils.LogInfo("Password reset", map[string]interface{}{"user_id": user.ID})
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidRole        = errors.New("role must be admin or waiter")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// MinPasswordLength is the shortest password accepted on register and reset.
const MinPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Role     string `json:"role" binding:"required,oneof=admin waiter"`
}

// ClientInfo describes where a login comes from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	SessionID   string       `json:"session_id"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(req RegisterUserRequest) (*models.User, error)
	LoginUser(req LoginRequest, client ClientInfo) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	sessions repositories.SessionRepository
	jwt      *utils.JWTManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, sessions repositories.SessionRepository, jwt *utils.JWTManager) AuthService {
	return &authService{
		authRepo: authRepo,
		sessions: sessions,
		jwt:      jwt,
	}
}

// RegisterUser creates a staff account.
func (s *authService) RegisterUser(req RegisterUserRequest) (*models.User, error) {
	if !models.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidRole, req.Role)
	}
	if !utils.IsValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if !utils.IsValidPasswordLength(req.Password, MinPasswordLength) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:    req.Email,
		FullName: utils.NewNullString(strings.TrimSpace(req.FullName)),
		Role:     req.Role,
	}
	if _, err := s.authRepo.CreateUser(nil, &user, string(hashedPasswordBytes)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) && strings.Contains(err.Error(), repositories.ConstraintUserEmail) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return &user, nil
}

// LoginUser checks the credentials, records a login session and issues a token bound to it.
func (s *authService) LoginUser(req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.authRepo.FindUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	osName, browser := ParseUserAgent(client.UserAgent)
	session := models.LoginSession{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		OS:        osName,
		Browser:   browser,
	}
	if err := s.sessions.CreateSession(&session); err != nil {
		return nil, fmt.Errorf("failed to record login session: %w", err)
	}

	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role, session.ID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	utils.LogInfo("User logged in", map[string]interface{}{
		"user_id": user.ID, "role": user.Role, "os": osName, "browser": browser,
	})

	user.PasswordHash = "" // Clear password hash before returning user details
	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		SessionID:   session.ID.String(),
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = "" // Ensure password hash is not exposed
	return user, nil
}

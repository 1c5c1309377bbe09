package handlers

import (
	"errors"
	"net/http"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the account, session and password reset services.
type AuthHandler struct {
	authService    services.AuthService
	sessionService services.SessionService
	resetService   services.PasswordResetService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService, ss services.SessionService, rs services.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: as, sessionService: ss, resetService: rs}
}

// RegisterUser handles user registration.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "RegisterUser", err)
		return
	}

	user, err := h.authService.RegisterUser(req)
	if err != nil {
		utils.LogError(err, "RegisterUser: Error from authService.RegisterUser")
		if errors.Is(err, services.ErrEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidRole) || errors.Is(err, services.ErrValidation) {
			utils.RespondValidationFailed(c, err.Error())
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to register user.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "LoginUser", err)
		return
	}

	authResp, err := h.authService.LoginUser(req, services.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()})
	if err != nil {
		utils.LogError(err, "LoginUser: Error from authService.LoginUser")
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to login.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(p.UserID)
	if err != nil {
		utils.LogError(err, "GetCurrentUser: Error from authService.GetUserProfile for userID "+utils.Int64ToStr(p.UserID))
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User profile not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve user profile.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

// LogoutUser ends the login session the token belongs to.
func (h *AuthHandler) LogoutUser(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if err := h.sessionService.TerminateSession(p.SessionID); err != nil {
		h.respondSessionError(c, "LogoutUser: Error from sessionService.TerminateSession", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

// GetLoginSessions lists the latest session per user, device and address.
func (h *AuthHandler) GetLoginSessions(c *gin.Context) {
	sessions, err := h.sessionService.ListSessions()
	if err != nil {
		h.respondSessionError(c, "GetLoginSessions: Error from sessionService.ListSessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

// TerminateLoginSession logs out any session by id.
func (h *AuthHandler) TerminateLoginSession(c *gin.Context) {
	if err := h.sessionService.TerminateSession(c.Param("id")); err != nil {
		h.respondSessionError(c, "TerminateLoginSession: Error from sessionService.TerminateSession", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session logged out."})
}

func (h *AuthHandler) respondSessionError(c *gin.Context, where string, err error) {
	utils.LogError(err, where)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Session not found.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process session request.", "Internal error"))
	}
}

// SendOTP issues a password reset code. The answer is the same whether or not the email is known.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req services.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "SendOTP", err)
		return
	}
	if err := h.resetService.SendOTP(c.Request.Context(), req); err != nil {
		utils.LogError(err, "SendOTP: Error from resetService.SendOTP")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to send code.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a code has been sent."})
}

// ResetPassword sets a new password using a code from SendOTP.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "ResetPassword", err)
		return
	}
	if err := h.resetService.ResetPassword(c.Request.Context(), req); err != nil {
		utils.LogError(err, "ResetPassword: Error from resetService.ResetPassword")
		switch {
		case errors.Is(err, services.ErrInvalidOTP), errors.Is(err, services.ErrTooManyAttempts), errors.Is(err, services.ErrValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to reset password.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated. Please log in again."})
}

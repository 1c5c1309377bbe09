package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound   = errors.New("login session not found")
	ErrSessionTerminated = errors.New("login session has been logged out")
)

// touchInterval limits how often last_seen_at is written for one session.
const touchInterval = time.Minute

// SessionService manages login sessions.
type SessionService interface {
	ListSessions() ([]models.LoginSession, error)
	TerminateSession(sessionID string) error
	// CheckSession fails unless sessionID names a live session.
	CheckSession(sessionID string) error
}

type sessionService struct {
	sessions repositories.SessionRepository
	now      func() time.Time
}

// NewSessionService creates a new instance of SessionService.
func NewSessionService(sessions repositories.SessionRepository) SessionService {
	return &sessionService{sessions: sessions, now: time.Now}
}

func (s *sessionService) ListSessions() ([]models.LoginSession, error) {
	sessions, err := s.sessions.ListLatestSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to list login sessions: %w", err)
	}
	return sessions, nil
}

func (s *sessionService) TerminateSession(sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("%w: invalid session id", ErrValidation)
	}
	if err := s.sessions.TerminateSession(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to terminate session: %w", err)
	}
	utils.LogInfo("Login session terminated", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (s *sessionService) CheckSession(sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrSessionNotFound
	}
	session, err := s.sessions.GetSession(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Active() {
		return ErrSessionTerminated
	}
	now := s.now()
	if now.Sub(session.LastSeenAt) >= touchInterval {
		if err := s.sessions.TouchSession(id, now); err != nil {
			utils.LogError(err, "Failed to update session last seen time")
		}
	}
	return nil
}

// ParseUserAgent extracts a coarse operating system and browser name.
func ParseUserAgent(ua string) (osName, browser string) {
	l := strings.ToLower(ua)

	switch {
	case strings.Contains(l, "android"):
		osName = "Android"
	case strings.Contains(l, "iphone"), strings.Contains(l, "ipad"):
		osName = "iOS"
	case strings.Contains(l, "windows"):
		osName = "Windows"
	case strings.Contains(l, "mac os"), strings.Contains(l, "macintosh"):
		osName = "macOS"
	case strings.Contains(l, "cros"):
		osName = "ChromeOS"
	case strings.Contains(l, "linux"):
		osName = "Linux"
	default:
		osName = "Unknown"
	}

	// Order matters: Edge and Opera also report Chrome, Chrome also reports Safari.
	switch {
	case strings.Contains(l, "edg/"):
		browser = "Edge"
	case strings.Contains(l, "opr/"), strings.Contains(l, "opera"):
		browser = "Opera"
	case strings.Contains(l, "firefox/"), strings.Contains(l, "fxios/"):
		browser = "Firefox"
	case strings.Contains(l, "chrome/"), strings.Contains(l, "crios/"):
		browser = "Chrome"
	case strings.Contains(l, "safari/"):
		browser = "Safari"
	default:
		browser = "Unknown"
	}
	return osName, browser
}

package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/google/uuid"
)

// SessionRepository stores login sessions.
type SessionRepository interface {
	CreateSession(session *models.LoginSession) error
	GetSession(id uuid.UUID) (*models.LoginSession, error)
	TouchSession(id uuid.UUID, at time.Time) error
	ListLatestSessions() ([]models.LoginSession, error)
	TerminateSession(id uuid.UUID) error
	TerminateUserSessions(executor SQLExecutor, userID int64) (int64, error)
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, email, role, ip, user_agent, os, browser, created_at, last_seen_at, terminated_at`

func scanSession(s scanner, ls *models.LoginSession) error {
	var terminatedAt sql.NullTime
	if err := s.Scan(&ls.ID, &ls.UserID, &ls.Email, &ls.Role, &ls.IP, &ls.UserAgent, &ls.OS, &ls.Browser,
		&ls.CreatedAt, &ls.LastSeenAt, &terminatedAt); err != nil {
		return err
	}
	if terminatedAt.Valid {
		ls.TerminatedAt = &terminatedAt.Time
	}
	return nil
}

func (r *sessionRepository) CreateSession(session *models.LoginSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now()
	session.CreatedAt, session.LastSeenAt = now, now
	query := `INSERT INTO login_sessions (id, user_id, email, role, ip, user_agent, os, browser, created_at, last_seen_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(query, session.ID, session.UserID, session.Email, session.Role, session.IP,
		session.UserAgent, session.OS, session.Browser, session.CreatedAt, session.LastSeenAt)
	if err != nil {
		return wrapWriteError(err, "creating login session")
	}
	return nil
}

func (r *sessionRepository) GetSession(id uuid.UUID) (*models.LoginSession, error) {
	ls := &models.LoginSession{}
	if err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM login_sessions WHERE id = $1`, id), ls); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting login session %s: %v", ErrDatabaseError, id, err)
	}
	return ls, nil
}

func (r *sessionRepository) TouchSession(id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(`UPDATE login_sessions SET last_seen_at = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("%w: touching login session %s: %v", ErrDatabaseError, id, err)
	}
	return nil
}

// ListLatestSessions returns the newest session per email, role, os, browser and ip.
func (r *sessionRepository) ListLatestSessions() ([]models.LoginSession, error) {
	sessions := []models.LoginSession{}
	query := `SELECT ` + sessionColumns + ` FROM (
	            SELECT DISTINCT ON (email, role, os, browser, ip) ` + sessionColumns + `
	            FROM login_sessions
	            ORDER BY email, role, os, browser, ip, created_at DESC
	          ) latest
	          ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing login sessions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ls models.LoginSession
		if err := scanSession(rows, &ls); err != nil {
			return nil, fmt.Errorf("%w: scanning login session: %v", ErrDatabaseError, err)
		}
		sessions = append(sessions, ls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating login sessions: %v", ErrDatabaseError, err)
	}
	return sessions, nil
}

func (r *sessionRepository) TerminateSession(id uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE login_sessions SET terminated_at = COALESCE(terminated_at, $1) WHERE id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: terminating login session %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepository) TerminateUserSessions(executor SQLExecutor, userID int64) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	result, err := executor.Exec(`UPDATE login_sessions SET terminated_at = $1 WHERE user_id = $2 AND terminated_at IS NULL`, time.Now(), userID)
	if err != nil {
		return 0, fmt.Errorf("%w: terminating sessions of user %d: %v", ErrDatabaseError, userID, err)
	}
	return result.RowsAffected()
}

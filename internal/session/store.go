package session

import (
	"context"
	"errors"
	"time"
)

// Session represents an authenticated user session.
// It stores only the identity pointer, never provider tokens.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id,string"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

var ErrNotFound = errors.New("session not found")

// Store defines how sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, s Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

func validate(s Session, now time.Time) error {
	if s.ID == "" || s.UserID <= 0 {
		return errors.New("session: missing id or user_id")
	}
	if !s.ExpiresAt.After(now) {
		return errors.New("session: expires_at must be in the future")
	}
	return nil
}

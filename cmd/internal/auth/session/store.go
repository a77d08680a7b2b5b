package session

import (
	"context"
	"time"
)

// Record mirrors a webchat.sessions row.
type Record struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// Store abstracts persistence for session state.
//
// Refresh tokens are matched by hash only; the plain token never reaches
// a Store implementation.
type Store interface {
	// Create creates a new session row.
	Create(ctx context.Context, now time.Time, userID string, refreshHash string, expiresAt time.Time) (sessionID string, err error)

	// GetByRefreshHash loads a session row by refresh-token hash.
	// Returns ErrSessionNotFound when no row matches.
	GetByRefreshHash(ctx context.Context, refreshHash string) (Record, error)

	// DeleteByRefreshHash removes the session matching the hash.
	// Deleting a missing session is not an error (sign-out is idempotent).
	DeleteByRefreshHash(ctx context.Context, refreshHash string) error

	// DeleteExpired removes sessions whose expiry is at or before now.
	// Returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

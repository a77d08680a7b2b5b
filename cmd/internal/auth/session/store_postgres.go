package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// PostgresStore implements Store using PostgreSQL (webchat.sessions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new session row and returns its ULID.
func (s *PostgresStore) Create(ctx context.Context, now time.Time, userID string, refreshHash string, expiresAt time.Time) (string, error) {
	id := ulid.Make().String()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO webchat.sessions (
			id, user_id, refresh_token_hash, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5)
	`, id, userID, refreshHash, now, expiresAt)
	if err != nil {
		return "", err
	}

	return id, nil
}

// GetByRefreshHash loads a session row by refresh-token hash.
func (s *PostgresStore) GetByRefreshHash(ctx context.Context, refreshHash string) (Record, error) {
	var rec Record

	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, refresh_token_hash, created_at, expires_at
		FROM webchat.sessions
		WHERE refresh_token_hash = $1
	`, refreshHash).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.RefreshTokenHash,
		&rec.CreatedAt,
		&rec.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, err
	}

	return rec, nil
}

// DeleteByRefreshHash removes the session matching the hash. Removing a
// missing row succeeds.
func (s *PostgresStore) DeleteByRefreshHash(ctx context.Context, refreshHash string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM webchat.sessions
		WHERE refresh_token_hash = $1
	`, refreshHash)
	return err
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM webchat.sessions
		WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

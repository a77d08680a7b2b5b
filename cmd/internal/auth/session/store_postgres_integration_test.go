package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are opt-in and require WEBCHAT_TEST_DATABASE_URL.
// The session store's SQL targets the fixed webchat schema, so these tests
// create the minimal webchat tables in the target database if absent and
// clean up every row they insert.

func TestPostgresSessionStore_Lifecycle(t *testing.T) {
	pool := mustOpenSessionTestPool(t)
	defer pool.Close()

	mustEnsureSessionSchema(t, pool)

	s := NewPostgresStore(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := mustSeedSessionUser(t, pool)
	hash := strings.Repeat("a", 62) + fmt.Sprintf("%02x", time.Now().UnixNano()%256)

	id, err := s.Create(ctx, now, userID, hash, now.Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteByRefreshHash(context.Background(), hash) })

	rec, err := s.GetByRefreshHash(ctx, hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ID != id || rec.UserID != userID {
		t.Fatalf("record mismatch: %+v", rec)
	}
	if !rec.ExpiresAt.After(now) {
		t.Fatalf("expires_at not in the future: %v", rec.ExpiresAt)
	}

	if err := s.DeleteByRefreshHash(ctx, hash); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetByRefreshHash(ctx, hash); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("get after delete: err=%v, want ErrSessionNotFound", err)
	}

	// Idempotent delete.
	if err := s.DeleteByRefreshHash(ctx, hash); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPostgresSessionStore_DeleteExpired(t *testing.T) {
	pool := mustOpenSessionTestPool(t)
	defer pool.Close()

	mustEnsureSessionSchema(t, pool)

	s := NewPostgresStore(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	now := time.Now().UTC()
	userID := mustSeedSessionUser(t, pool)

	liveHash := ulid.Make().String() + strings.Repeat("b", 64-26)
	deadHash := ulid.Make().String() + strings.Repeat("c", 64-26)

	if _, err := s.Create(ctx, now, userID, liveHash, now.Add(time.Hour)); err != nil {
		t.Fatalf("create live: %v", err)
	}
	if _, err := s.Create(ctx, now.Add(-15*24*time.Hour), userID, deadHash, now.Add(-24*time.Hour)); err != nil {
		t.Fatalf("create dead: %v", err)
	}
	t.Cleanup(func() {
		_ = s.DeleteByRefreshHash(context.Background(), liveHash)
		_ = s.DeleteByRefreshHash(context.Background(), deadHash)
	})

	if _, err := s.DeleteExpired(ctx, now); err != nil {
		t.Fatalf("delete expired: %v", err)
	}

	if _, err := s.GetByRefreshHash(ctx, liveHash); err != nil {
		t.Fatalf("live session gone: %v", err)
	}
	if _, err := s.GetByRefreshHash(ctx, deadHash); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("dead session survived: err=%v", err)
	}
}

// ---- helpers ----

func mustOpenSessionTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("WEBCHAT_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: WEBCHAT_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse WEBCHAT_TEST_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipSessionIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (WEBCHAT_TEST_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

// mustEnsureSessionSchema creates the webchat schema and the minimal tables
// the session store touches, if they are absent. This mirrors the embedded
// migrations so the store's fixed schema-qualified SQL can run against an
// empty test database.
func mustEnsureSessionSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	const ddl = `
CREATE SCHEMA IF NOT EXISTS webchat;

CREATE TABLE IF NOT EXISTS webchat.users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  username_norm TEXT NOT NULL,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  display_name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT uq_users_username_norm UNIQUE (username_norm),
  CONSTRAINT uq_users_email_norm UNIQUE (email_norm)
);

CREATE TABLE IF NOT EXISTS webchat.sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES webchat.users(id) ON DELETE CASCADE,
  refresh_token_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  expires_at TIMESTAMPTZ NOT NULL,

  CONSTRAINT uq_sessions_refresh_token_hash UNIQUE (refresh_token_hash)
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON webchat.sessions (expires_at);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
}

func mustSeedSessionUser(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id := ulid.Make().String()
	name := "session_it_" + strings.ToLower(id)
	_, err := pool.Exec(ctx, `
		INSERT INTO webchat.users (id, username, username_norm, email, email_norm, display_name)
		VALUES ($1, $2, $2, $3, $3, 'Session IT')
	`, id, name, name+"@example.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = pool.Exec(ctx, `DELETE FROM webchat.users WHERE id = $1`, id)
	})
	return id
}

func shouldSkipSessionIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}

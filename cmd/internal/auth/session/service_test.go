package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()

	cfg := testTokenConfig()
	mgr, err := NewHS256Manager(cfg)
	if err != nil {
		t.Fatalf("NewHS256Manager: %v", err)
	}
	store := NewMemoryStore()
	return NewService(cfg, store, mgr), store
}

func TestServiceIssueAndRefresh(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.IssueSession(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if issued.AccessToken == "" || issued.RefreshToken == "" || issued.SessionID == "" {
		t.Fatalf("incomplete issue result: %+v", issued)
	}
	if got := issued.RefreshExp.Sub(now); got != 14*24*time.Hour {
		t.Fatalf("refresh TTL=%v", got)
	}

	claims, err := svc.VerifyAccessToken(issued.AccessToken, now)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("UserID=%q", claims.UserID)
	}

	// Refresh yields a usable access token and a rotated refresh token.
	later := now.Add(2 * time.Hour)
	ref, err := svc.Refresh(ctx, later, issued.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if ref.UserID != "user-1" {
		t.Fatalf("refresh result: %+v", ref)
	}
	if _, err := svc.VerifyAccessToken(ref.AccessToken, later); err != nil {
		t.Fatalf("verify refreshed token: %v", err)
	}
	if ref.RefreshToken == "" || ref.RefreshToken == issued.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}
	if got := ref.RefreshExp.Sub(later); got != 14*24*time.Hour {
		t.Fatalf("rotated refresh TTL=%v", got)
	}

	// The presented token died in the exchange; the rotated one works.
	if _, err := svc.Refresh(ctx, later.Add(time.Minute), issued.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("replayed token: err=%v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Refresh(ctx, later.Add(time.Minute), ref.RefreshToken); err != nil {
		t.Fatalf("rotated token refresh: %v", err)
	}
}

func TestServiceRefreshOutcomes(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := svc.Refresh(ctx, now, ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty token: err=%v, want ErrNoToken", err)
	}
	if _, err := svc.Refresh(ctx, now, "   "); !errors.Is(err, ErrNoToken) {
		t.Fatalf("blank token: err=%v, want ErrNoToken", err)
	}
	if _, err := svc.Refresh(ctx, now, "unknown-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown token: err=%v, want ErrSessionNotFound", err)
	}

	issued, err := svc.IssueSession(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Beyond session expiry the record still exists but refresh must fail.
	past := issued.RefreshExp.Add(time.Second)
	if _, err := svc.Refresh(ctx, past, issued.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expired session: err=%v, want ErrSessionExpired", err)
	}
}

func TestServiceSignOut(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.IssueSession(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	if err := svc.SignOut(ctx, issued.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	// The refresh token is dead after sign-out.
	if _, err := svc.Refresh(ctx, now, issued.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("post-signout refresh: err=%v, want ErrSessionNotFound", err)
	}

	// Sign-out is idempotent: repeated and unknown tokens succeed.
	if err := svc.SignOut(ctx, issued.RefreshToken); err != nil {
		t.Fatalf("repeated SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, ""); err != nil {
		t.Fatalf("empty SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, "never-issued"); err != nil {
		t.Fatalf("unknown SignOut: %v", err)
	}
}

func TestServiceDeleteExpired(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live, err := svc.IssueSession(ctx, now, "user-live")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	dead, err := svc.IssueSession(ctx, now.Add(-15*24*time.Hour), "user-dead")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	n, err := svc.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("removed=%d, want 1", n)
	}

	if _, err := svc.Refresh(ctx, now, live.RefreshToken); err != nil {
		t.Fatalf("live session refresh: %v", err)
	}
	if _, err := svc.Refresh(ctx, now, dead.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("reaped session refresh: err=%v, want ErrSessionNotFound", err)
	}
}

func TestRefreshTokenEntropy(t *testing.T) {
	t.Parallel()

	plain, hash, err := newOpaqueRefreshToken(32)
	if err != nil {
		t.Fatalf("newOpaqueRefreshToken: %v", err)
	}
	// 32 bytes base64url without padding is 43 characters.
	if len(plain) != 43 {
		t.Fatalf("plain length=%d", len(plain))
	}
	if len(hash) != 64 {
		t.Fatalf("hash length=%d", len(hash))
	}

	plain2, hash2, err := newOpaqueRefreshToken(32)
	if err != nil {
		t.Fatalf("newOpaqueRefreshToken: %v", err)
	}
	if plain == plain2 || hash == hash2 {
		t.Fatalf("duplicate refresh tokens generated")
	}
}

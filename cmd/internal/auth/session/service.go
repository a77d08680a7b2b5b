package session

import (
	"context"
	"strings"
	"time"
)

// Service implements the high-level session operations for webchat.
//
// It issues sessions (access + refresh), refreshes access tokens against
// the stored session, verifies access tokens, and deletes sessions on
// sign-out.
type Service struct {
	cfg    Config
	tokens AccessTokenManager
	store  Store
}

// Issued is the result of issuing a session.
// It includes a short-lived access token and an opaque refresh token.
type Issued struct {
	SessionID    string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// Refreshed is the result of a successful refresh: a new access token plus
// a rotated refresh token replacing the one presented.
type Refreshed struct {
	SessionID    string
	UserID       string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service with the provided configuration, store,
// and token manager.
func NewService(cfg Config, store Store, tokens AccessTokenManager) *Service {
	return &Service{cfg: cfg, store: store, tokens: tokens}
}

// IssueSession creates a new session row and returns fresh tokens.
//
// Refresh tokens are opaque random strings and must never be persisted in
// plaintext. Only the hash (hex) is stored in the database.
func (s *Service) IssueSession(ctx context.Context, now time.Time, userID string) (Issued, error) {
	refreshPlain, refreshHash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes)
	if err != nil {
		return Issued{}, err
	}

	refreshExp := now.Add(s.cfg.RefreshTokenTTL)

	sessionID, err := s.store.Create(ctx, now, userID, refreshHash, refreshExp)
	if err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(userID, now)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshPlain,
		RefreshExp:   refreshExp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token and a
// rotated refresh token.
//
// Outcomes:
//   - empty token: ErrNoToken
//   - no matching session: ErrSessionNotFound
//   - matching but expired session: ErrSessionExpired
//
// Rotation deletes the presented token's row and stores a fresh one with a
// full refresh TTL. A stolen token can therefore be used at most once before
// the legitimate client's next refresh invalidates it, and any later replay
// surfaces as ErrSessionNotFound.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshTokenPlain string) (Refreshed, error) {
	refreshTokenPlain = strings.TrimSpace(refreshTokenPlain)
	if refreshTokenPlain == "" {
		return Refreshed{}, ErrNoToken
	}
	// Sanity bounds against pathological inputs.
	if len(refreshTokenPlain) > 4096 {
		return Refreshed{}, ErrSessionNotFound
	}

	// Hash in-memory; the plain token never reaches the store.
	refreshHash := hashRefreshTokenHex(refreshTokenPlain)

	rec, err := s.store.GetByRefreshHash(ctx, refreshHash)
	if err != nil {
		return Refreshed{}, err
	}

	// Expiry is checked lazily here rather than by a background reaper.
	if !rec.ExpiresAt.After(now) {
		return Refreshed{}, ErrSessionExpired
	}

	nextPlain, nextHash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes)
	if err != nil {
		return Refreshed{}, err
	}
	nextExp := now.Add(s.cfg.RefreshTokenTTL)

	// Delete-then-create keeps the swap simple. If the create fails the old
	// row is already gone and the client must sign in again, which is the
	// safe failure mode.
	if err := s.store.DeleteByRefreshHash(ctx, refreshHash); err != nil {
		return Refreshed{}, err
	}
	sessionID, err := s.store.Create(ctx, now, rec.UserID, nextHash, nextExp)
	if err != nil {
		return Refreshed{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(rec.UserID, now)
	if err != nil {
		return Refreshed{}, err
	}

	return Refreshed{
		SessionID:    sessionID,
		UserID:       rec.UserID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: nextPlain,
		RefreshExp:   nextExp,
	}, nil
}

// SignOut deletes the session bound to the refresh token.
//
// Missing, unknown, or already-deleted tokens are not errors; sign-out is
// idempotent by contract.
func (s *Service) SignOut(ctx context.Context, refreshTokenPlain string) error {
	refreshTokenPlain = strings.TrimSpace(refreshTokenPlain)
	if refreshTokenPlain == "" || len(refreshTokenPlain) > 4096 {
		return nil
	}
	return s.store.DeleteByRefreshHash(ctx, hashRefreshTokenHex(refreshTokenPlain))
}

// VerifyAccessToken verifies an access token signature and validity window.
// It is a pure token check; no session lookup is involved.
func (s *Service) VerifyAccessToken(token string, now time.Time) (AccessClaims, error) {
	return s.tokens.Verify(token, now)
}

// DeleteExpired removes sessions whose expiry has passed. Intended for a
// periodic janitor; refresh correctness does not depend on it.
func (s *Service) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.store.DeleteExpired(ctx, now)
}

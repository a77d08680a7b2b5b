package authapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/lephu240905/webchat/cmd/identity"
	"github.com/lephu240905/webchat/cmd/internal/auth/session"
)

type contextKey int

const identityContextKey contextKey = iota

// WithIdentity attaches a verified identity to the request context.
func WithIdentity(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, identityContextKey, u)
}

// IdentityFrom returns the identity attached by the request gate.
func IdentityFrom(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(identityContextKey).(identity.User)
	return u, ok
}

// extractAccessToken reads the access token from the request.
// The cookie channel is checked first; the bearer header is the fallback
// for non-browser clients.
func (h *Handler) extractAccessToken(r *http.Request) (string, bool) {
	if tok, ok := h.accessTokenFromCookie(r); ok {
		return tok, true
	}
	if tok := bearerToken(r); tok != "" {
		return tok, true
	}
	return "", false
}

// RequireIdentity gates a handler on a valid access token.
//
// Outcomes:
//   - no token at all: 401
//   - token present but invalid or expired: 403
//   - token valid but the account no longer exists: 404
//
// On success the resolved identity is attached to the request context and
// the wrapped handler runs.
func (h *Handler) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := h.extractAccessToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no access token")
			return
		}

		claims, err := h.sessions.VerifyAccessToken(tok, h.now())
		if err != nil {
			if errors.Is(err, session.ErrTokenExpired) {
				writeError(w, http.StatusForbidden, "token_expired", "access token expired")
				return
			}
			writeError(w, http.StatusForbidden, "invalid_token", "invalid access token")
			return
		}

		u, err := h.identity.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if identity.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "not_found", "user not found")
				return
			}
			h.log.Error("auth.gate.lookup.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "system error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), u)))
	})
}

package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lephu240905/webchat/cmd/identity"
	"github.com/lephu240905/webchat/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to identity/session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	// pool is used for audit rows and the sign-in IP throttle.
	// It may be nil (dev mode); auditing and throttling are then disabled.
	pool *pgxpool.Pool

	identity identity.Store
	sessions *session.Service

	// dummyHash keeps sign-in timing uniform for unknown usernames.
	dummyHash string

	// nowFn is replaceable in tests.
	nowFn func() time.Time
}

// HandlerOption configures optional handler behavior.
type HandlerOption func(*Handler)

// WithNow overrides the handler clock.
func WithNow(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.nowFn = now
	}
}

// NewHandler constructs an auth Handler over the given stores.
func NewHandler(log *slog.Logger, cfg Config, pool *pgxpool.Pool, idStore identity.Store, sessions *session.Service, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if idStore == nil {
		return nil, errors.New("auth: nil identity store")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session service")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		pool:     pool,
		identity: idStore,
		sessions: sessions,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}

	// Dummy hash for timing-resistant sign-in checks.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/auth/signup", h.handleSignUp)
	mux.HandleFunc("/api/auth/signin", h.handleSignIn)
	mux.HandleFunc("/api/auth/signout", h.handleSignOut)
	mux.HandleFunc("/api/auth/refresh", h.handleRefresh)
}

// SessionService returns the underlying session service.
func (h *Handler) SessionService() *session.Service {
	if h == nil {
		return nil
	}
	return h.sessions
}

func (h *Handler) now() time.Time { return h.nowFn() }

// ---- handlers ----

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	ctx := r.Context()
	now := h.now()

	u, err := h.identity.CreateUser(ctx, identity.CreateUserInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Now:       now,
	})
	if err != nil {
		switch {
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "bad_request", "username, password, email, firstName and lastName are required")
		case identity.IsConflict(err):
			switch identity.ConflictField(err) {
			case "email":
				writeError(w, http.StatusConflict, "conflict", "email already in use")
			default:
				writeError(w, http.StatusConflict, "conflict", "username already taken")
			}
		default:
			h.log.Error("auth.signup.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "system error")
		}
		return
	}

	h.auditSignUp(ctx, u.ID, clientIP(r, h.cfg.TrustProxy), r.UserAgent())

	writeJSON(w, http.StatusCreated, messageResponse{Message: "account created"})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username and password are required")
		return
	}

	ctx := r.Context()
	now := h.now()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	throttled, retryAfter, err := h.checkSignInIPThrottle(ctx, ip, now)
	if err != nil {
		h.log.Error("auth.signin.throttle.fail", "err", err)
	} else if throttled {
		h.auditSignInRateLimited(ctx, ip, ua, username, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}

	auth, err := h.identity.GetUserAuthByUsername(ctx, username)
	if err != nil {
		if identity.IsNotFound(err) {
			// Burn a verify against the dummy hash so unknown usernames
			// take as long as wrong passwords.
			_ = identity.VerifyPassword(req.Password, h.dummyHash)
			h.auditSignInFailed(ctx, nil, ip, ua, username, "unknown_user")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password")
			return
		}
		h.log.Error("auth.signin.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "system error")
		return
	}

	if !identity.VerifyPassword(req.Password, auth.PasswordHash) {
		h.auditSignInFailed(ctx, &auth.User.ID, ip, ua, username, "bad_password")
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password")
		return
	}

	issued, err := h.sessions.IssueSession(ctx, now, auth.User.ID)
	if err != nil {
		h.log.Error("auth.signin.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "system error")
		return
	}

	h.setAccessCookie(w, issued.AccessToken, issued.AccessExp)
	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)

	h.auditSignInSuccess(ctx, auth.User.ID, issued.SessionID, ip, ua)

	writeJSON(w, http.StatusOK, messageResponse{Message: "welcome back, " + auth.User.DisplayName})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	// Sign-out never fails the request: the session row is deleted when the
	// cookie is present, and the client-held cookies are cleared either way.
	if tok, ok := h.refreshTokenFromCookie(r); ok {
		if err := h.sessions.SignOut(ctx, tok); err != nil {
			h.log.Error("auth.signout.fail", "err", err)
		} else {
			h.auditSignOut(ctx, clientIP(r, h.cfg.TrustProxy), r.UserAgent())
		}
	}

	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	now := h.now()

	tok, ok := h.refreshTokenFromCookie(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "no refresh token")
		return
	}

	ref, err := h.sessions.Refresh(ctx, now, tok)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoToken):
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no refresh token")
		case errors.Is(err, session.ErrSessionExpired):
			writeError(w, http.StatusForbidden, "forbidden", "refresh token expired")
		case errors.Is(err, session.ErrSessionNotFound):
			writeError(w, http.StatusForbidden, "forbidden", "invalid refresh token")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "system error")
		}
		return
	}

	h.setAccessCookie(w, ref.AccessToken, ref.AccessExp)
	h.setRefreshCookie(w, ref.RefreshToken, ref.RefreshExp)

	h.auditRefreshSuccess(ctx, ref.SessionID, clientIP(r, h.cfg.TrustProxy), r.UserAgent())

	writeJSON(w, http.StatusOK, messageResponse{Message: "token refreshed"})
}

// HandleMe returns the authenticated user's profile. It must run behind
// RequireIdentity.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "no access token")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}

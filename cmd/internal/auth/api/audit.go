package authapi

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"
)

// Audit rows are best-effort: a failed insert is logged and never fails the
// request. When no pool is configured (dev mode) auditing is a no-op.

func (h *Handler) auditSignUp(ctx context.Context, userID string, ip net.IP, ua string) {
	h.insertAudit(ctx, "auth.signup", &userID, nil, ip, ua, nil)
}

func (h *Handler) auditSignInSuccess(ctx context.Context, userID string, sessionID string, ip net.IP, ua string) {
	h.insertAudit(ctx, "auth.signin.success", &userID, &sessionID, ip, ua, nil)
}

func (h *Handler) auditSignInFailed(ctx context.Context, userID *string, ip net.IP, ua string, identifier string, reason string) {
	h.insertAudit(ctx, "auth.signin.failed", userID, nil, ip, ua, map[string]any{
		"identifier": identifier,
		"reason":     reason,
	})
}

func (h *Handler) auditSignInRateLimited(ctx context.Context, ip net.IP, ua string, identifier string, retryAfter time.Duration) {
	h.insertAudit(ctx, "auth.signin.rate_limited", nil, nil, ip, ua, map[string]any{
		"identifier":    identifier,
		"retry_after_s": int64(retryAfter.Seconds()),
	})
}

func (h *Handler) auditRefreshSuccess(ctx context.Context, sessionID string, ip net.IP, ua string) {
	h.insertAudit(ctx, "auth.refresh.success", nil, &sessionID, ip, ua, nil)
}

func (h *Handler) auditSignOut(ctx context.Context, ip net.IP, ua string) {
	h.insertAudit(ctx, "auth.signout", nil, nil, ip, ua, nil)
}

func (h *Handler) insertAudit(ctx context.Context, action string, userID *string, sessionID *string, ip net.IP, ua string, meta map[string]any) {
	if h == nil || h.pool == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	var ipVal any
	if ip != nil {
		ipVal = ip.String()
	}

	var metaVal *string
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			s := string(b)
			metaVal = &s
		}
	}

	_, err := h.pool.Exec(ctx, `
		INSERT INTO webchat.audit_log (
			user_id, session_id, action, created_at, ip, user_agent, meta
		) VALUES ($1, $2, $3, now(), $4, $5, $6::jsonb)
	`, userID, sessionID, action, ipVal, trimOrNil(ua), metaVal)
	if err != nil {
		h.log.Error("auth.audit.insert.fail", "err", err, "action", action)
	}
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}

package authapi

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"
)

// checkSignInIPThrottle counts recent failed sign-ins from one IP against
// the audit log. Without a pool (dev mode) the throttle is disabled.
func (h *Handler) checkSignInIPThrottle(ctx context.Context, ip net.IP, now time.Time) (bool, time.Duration, error) {
	if h.pool == nil || ip == nil || h.cfg.SigninIPMax <= 0 {
		return false, 0, nil
	}

	cut := now.Add(-h.cfg.SigninIPWindow)

	var n int
	err := h.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM webchat.audit_log
		WHERE action = 'auth.signin.failed'
		  AND ip = $1
		  AND created_at >= $2
	`, ip.String(), cut).Scan(&n)
	if err != nil {
		return false, 0, err
	}

	if n >= h.cfg.SigninIPMax {
		return true, h.cfg.SigninIPWindow, nil
	}
	return false, 0, nil
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}

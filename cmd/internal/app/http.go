package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authapi "github.com/lephu240905/webchat/cmd/internal/auth/api"
	"github.com/lephu240905/webchat/cmd/internal/realtime"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	dbPool *pgxpool.Pool,
	dbEnabled bool,
	auth *authapi.Handler,
	ws *realtime.Gateway,
	metrics *Metrics,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && !dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if dbEnabled && dbPool != nil {
			if err := PingDB(r.Context(), dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	auth.Register(mux)

	// Everything past the gate sees an identity.User on the request context.
	mux.Handle("GET /api/me", auth.RequireIdentity(http.HandlerFunc(auth.HandleMe)))
	mux.Handle("/ws", auth.RequireIdentity(withWSConnGauge(ws, metrics)))
}

// withWSConnGauge tracks open websocket connections. HandleWS blocks for the
// connection lifetime, so the handler's duration is the connection's.
func withWSConnGauge(ws *realtime.Gateway, metrics *Metrics) http.Handler {
	if metrics == nil {
		return ws
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.WSConnOpened()
		defer metrics.WSConnClosed()
		ws.ServeHTTP(w, r)
	})
}

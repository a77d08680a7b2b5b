// Package app wires the webchat server runtime: config, logging, migrations,
// HTTP routes, the auth surface, and the realtime gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lephu240905/webchat/cmd/identity"
	authapi "github.com/lephu240905/webchat/cmd/internal/auth/api"
	"github.com/lephu240905/webchat/cmd/internal/auth/session"
	"github.com/lephu240905/webchat/cmd/internal/realtime"
)

// App is the server runtime. It owns the HTTP server wiring, the connection
// pool lifecycle, and the background session janitor.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth     *authapi.Handler
	sessions *session.Service
	ws       *realtime.Gateway
	metrics  *Metrics
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tokens, err := session.NewHS256Manager(sessCfg)
	if err != nil {
		return nil, err
	}

	var (
		dbPool    *pgxpool.Pool
		dbEnabled bool
		idStore   identity.Store
		sessStore session.Store
	)

	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		idStore = identity.NewMemoryStore()
		sessStore = session.NewMemoryStore()
	} else {
		if cfg.MigrateOnStart {
			if err := RunMigrations(ctx, cfg, log); err != nil {
				return nil, err
			}
		}

		dbPool, err = NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}

		idStore, err = identity.NewPostgresStore(dbPool)
		if err != nil {
			dbPool.Close()
			return nil, err
		}
		sessStore = session.NewPostgresStore(dbPool)
		dbEnabled = true
		log.Info("db.enabled.postgres_store")
	}

	sessions := session.NewService(sessCfg, sessStore, tokens)

	authCfg := authapi.LoadConfigFromEnv()
	auth, err := authapi.NewHandler(log, authCfg, dbPool, idStore, sessions)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	var metrics *Metrics
	if cfg.MetricsEnabled {
		metrics = NewMetrics()
	}

	ws := realtime.NewGateway(log, realtime.NewHub(log))

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		auth:      auth,
		sessions:  sessions,
		ws:        ws,
		metrics:   metrics,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.ws, a.metrics)

	var handler http.Handler = mux
	if len(a.cfg.CORSAllowedOrigins) > 0 {
		handler = WithCORS(handler, a.cfg, a.log)
	}
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.runSessionJanitor(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

// runSessionJanitor periodically reaps expired session rows. Expiry is also
// enforced lazily on refresh, so the janitor is purely hygiene and safe to
// disable.
func (a *App) runSessionJanitor(ctx context.Context) {
	if a.cfg.SessionJanitorInterval <= 0 {
		return
	}

	t := time.NewTicker(a.cfg.SessionJanitorInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.sessions.DeleteExpired(ctx, time.Now())
			if err != nil {
				a.log.Warn("session.janitor.fail", "err", err)
				continue
			}
			if n > 0 {
				a.log.Info("session.janitor.reaped", "sessions", n)
			}
		}
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

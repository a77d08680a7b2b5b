package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/lephu240905/webchat/cmd/internal/migrations"
)

// RunMigrations applies the embedded SQL migrations to the configured database.
// It opens a short-lived database/sql connection because goose operates on
// *sql.DB; the pgxpool used at runtime is unaffected.
func RunMigrations(ctx context.Context, cfg Config, log Logger) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("migrations: no database configured")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migrations: open: %w", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("migrations: dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}

	log.Info("db.migrations.applied")
	return nil
}

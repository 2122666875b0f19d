package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/udisondev/spawnpool/internal/db/migrations"
)

// RunMigrations brings the schema at dsn up to date. goose needs a
// database/sql handle, so a short-lived one is opened through the pgx driver.
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer sqlDB.Close()

	n, err := migrations.Up(ctx, sqlDB)
	if err != nil {
		return err
	}
	slog.Info("schema up to date", "applied", n)
	return nil
}

package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// RunPostgresMigrations applies the embedded Postgres migrations through the pool.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}
	// The wrapper shares the pool's connections; closing it is left to the pool.
	db := stdlib.OpenDBFromPool(pool)
	return runMigrations(ctx, db, "postgres", "migrations/postgres", logger)
}

// RunSQLiteMigrations applies the embedded SQLite migrations.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return runMigrations(ctx, db, "sqlite3", "migrations/sqlite", logger)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect, dir string, logger *zap.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("migrations applied", zap.String("dialect", dialect), zap.Int64("version", version))
	return nil
}

// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/persistence"
)

// NewSQLiteDB opens a migrated SQLite database under t.TempDir. It is closed
// when the test ends.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := persistence.NewSQLite(ctx, filepath.Join(t.TempDir(), "shop.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, persistence.RunSQLiteMigrations(ctx, db.DB, zap.NewNop()))
	return db.DB
}

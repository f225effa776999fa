package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
)

func TestRunSQLiteMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "shop.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunSQLiteMigrations(ctx, db.DB, zap.NewNop()))
	// Re-running is a no-op.
	require.NoError(t, RunSQLiteMigrations(ctx, db.DB, zap.NewNop()))

	for _, table := range []string{"users", "products"} {
		var name string
		err := db.DB.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	_, err = db.DB.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, status, created_at, updated_at)
        VALUES ('1', 'alice', 'a@x.com', 'h', 'superuser', 'now', 'now')`)
	require.Error(t, err, "status is restricted to standard and admin")

	require.NoError(t, db.Ping(ctx))
}

func TestNewSQLite_RequiresPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), "", zap.NewNop())
	require.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	disabled := NewRedis(config.RedisConfig{}, zap.NewNop())
	assert.Nil(t, disabled)
	require.ErrorIs(t, disabled.Ping(context.Background()), ErrRedisDisabled)
	disabled.Close()

	mr := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NotNil(t, r)
	defer r.Close()
	require.NoError(t, r.Ping(context.Background()))
}

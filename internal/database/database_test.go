package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-app/backend/internal/config"
	"todo-app/backend/internal/logging"
)

func sqliteConfig(t *testing.T) config.DBConfig {
	return config.DBConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "todos.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

func TestMigrateUpAndDown_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	logger := logging.Discard()

	require.NoError(t, Migrate(cfg, Up, logger))
	// 2回目は変更なしでもエラーにならない
	require.NoError(t, Migrate(cfg, Up, logger))

	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	require.NoError(t, db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'todos', 'password_reset_tokens') ORDER BY name"))
	assert.Equal(t, []string{"password_reset_tokens", "todos", "users"}, tables)

	require.NoError(t, Migrate(cfg, Down, logger))
	tables = nil
	require.NoError(t, db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'todos', 'password_reset_tokens')"))
	assert.Empty(t, tables)
}

func TestMigrate_UnknownDirection(t *testing.T) {
	err := Migrate(sqliteConfig(t), Direction("sideways"), logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration direction")
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	cfg := sqliteConfig(t)
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	var enabled int
	require.NoError(t, db.Get(&enabled, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, enabled)
}

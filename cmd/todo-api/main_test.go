package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand_SQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "panic")

	out, err := runCLI(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate up: ok")

	out, err = runCLI(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate down: ok")
}

func TestMigrateCommand_InvalidArgs(t *testing.T) {
	_, err := runCLI(t, "migrate", "sideways")
	assert.ErrorContains(t, err, "unknown migration direction")

	_, err = runCLI(t, "migrate")
	assert.Error(t, err)
}

func TestMigrateCommand_MissingSecret(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "")

	_, err := runCLI(t, "migrate", "up")
	assert.Error(t, err)
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	out, err := runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "migrate")
}

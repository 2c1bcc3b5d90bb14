package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, 20*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowOrigins())
	assert.Equal(t, "@hourly", cfg.ResetTokenCleanupSchedule)
	assert.Empty(t, cfg.TrustedProxyList(), "no proxy is trusted by default")
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("testdata/does-not-exist.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("testdata/does-not-exist.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestAllowOrigins_Split(t *testing.T) {
	cfg := &Config{CORSAllowOrigins: "http://a.example, http://b.example,,"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowOrigins())
}

func TestTrustedProxyList_Split(t *testing.T) {
	cfg := &Config{TrustedProxies: " 10.0.0.0/8 ,192.168.1.1,"}
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxyList())
}

func TestDBConfig_DSN(t *testing.T) {
	base := DBConfig{Host: "db", Port: "3306", User: "todo", Pass: "secret", Name: "todos", Path: "/tmp/todos.db"}

	t.Run("mysql", func(t *testing.T) {
		c := base
		c.Driver = DriverMySQL
		dsn := c.DSN()
		assert.True(t, strings.HasPrefix(dsn, "todo:secret@tcp(db:3306)/todos"), dsn)
		assert.Contains(t, dsn, "parseTime=true")
		assert.Equal(t, "mysql://"+dsn, c.MigrationURL())
	})

	t.Run("postgres", func(t *testing.T) {
		c := base
		c.Driver = DriverPostgres
		c.Port = "5432"
		assert.Equal(t, "postgres://todo:secret@db:5432/todos?sslmode=disable", c.DSN())
	})

	t.Run("sqlite", func(t *testing.T) {
		c := base
		c.Driver = DriverSQLite
		assert.Equal(t, "file:/tmp/todos.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.DSN())
		assert.Equal(t, "sqlite:///tmp/todos.db", c.MigrationURL())
	})
}

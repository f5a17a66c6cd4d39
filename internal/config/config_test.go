package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Should return defaults when file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, "8000", cfg.Server.Port)
		assert.Equal(t, "5432", cfg.Postgres.Port)
		assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
		assert.True(t, cfg.Server.Metrics)
	})

	t.Run("Should read values from yaml file", func(t *testing.T) {
		path := writeConfig(t, `
storage: postgres
server:
  port: "9090"
  shutdown_timeout: 10s
postgres:
  host: db
  db: blog
  user: blog
  password: secret
log:
  level: debug
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, StoragePostgres, cfg.Storage)
		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "db", cfg.Postgres.Host)
		assert.Equal(t, "secret", cfg.Postgres.Password)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("Should override file values with environment", func(t *testing.T) {
		path := writeConfig(t, "postgres:\n  host: from-file\n")
		t.Setenv("POSTGRES_HOST", "from-env")
		t.Setenv("POSTGRES_PORT", "6543")
		t.Setenv("POSTGRES_MAX_CONNS", "3")
		t.Setenv("APP_PORT", "8081")
		t.Setenv("LOG_JSON", "true")
		t.Setenv("LOG_DIR", "/tmp/blog-logs")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Postgres.Host)
		assert.Equal(t, "6543", cfg.Postgres.Port)
		assert.Equal(t, int32(3), cfg.Postgres.MaxConns)
		assert.Equal(t, "8081", cfg.Server.Port)
		assert.True(t, cfg.Log.JSON)
		assert.Equal(t, "/tmp/blog-logs", cfg.Log.Dir)
	})

	t.Run("Should fail when postgres password is missing", func(t *testing.T) {
		t.Setenv("APP_STORAGE", "postgres")
		t.Setenv("POSTGRES_PASSWORD", "")

		cfg, err := Load("")
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrMissingPassword)
	})

	t.Run("Should apply options before validation", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "")

		_, err := Load("", func(c *Config) { c.Storage = StoragePostgres })
		assert.ErrorIs(t, err, ErrMissingPassword)

		cfg, err := Load("", func(c *Config) { c.Server.Port = "7000" })
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.Server.Port)
	})

	t.Run("Should reject unknown storage", func(t *testing.T) {
		t.Setenv("APP_STORAGE", "redis")

		_, err := Load("")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})

	t.Run("Should fail on malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "storage: [")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestPostgresConfig_DSN(t *testing.T) {
	t.Run("Should build DSN from parts", func(t *testing.T) {
		cfg := PostgresConfig{
			Host:     "db",
			Port:     "5432",
			DB:       "blog",
			User:     "user",
			Password: "p@ss",
			SSLMode:  "disable",
		}
		assert.Equal(t, "postgres://user:p%40ss@db:5432/blog?sslmode=disable", cfg.DSN())
	})

	t.Run("Should omit credentials when user is empty", func(t *testing.T) {
		cfg := PostgresConfig{Host: "db", Port: "5432", DB: "blog"}
		assert.Equal(t, "postgres://db:5432/blog", cfg.DSN())
	})
}

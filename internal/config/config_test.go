package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.toml")
	content := `
port = "9090"
db_driver = "sqlite"
sqlite_path = "/tmp/from-file.db"
jwt_secret = "file-secret"
token_ttl = "1h"
cors_origins = ["http://localhost:5173"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "env overrides file")
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/from-file.db", cfg.SQLitePath)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_EnvParsing(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("IDEMPOTENCY_TTL", "2h")
	t.Setenv("JANITOR_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.Zero(t, cfg.JanitorInterval, "zero disables the janitor")

	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown driver", env: map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{name: "bad ttl", env: map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "eight hours"}},
		{name: "negative janitor interval", env: map[string]string{"JWT_SECRET": "s", "JANITOR_INTERVAL": "-1m"}},
		{name: "bad idempotency ttl", env: map[string]string{"JWT_SECRET": "s", "IDEMPOTENCY_TTL": "a day"}},
		{name: "bad bool", env: map[string]string{"JWT_SECRET": "s", "AUTO_MIGRATE": "maybe"}},
		{name: "missing file", env: map[string]string{"JWT_SECRET": "s", "CONFIG_FILE": "/nonexistent/tracker.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

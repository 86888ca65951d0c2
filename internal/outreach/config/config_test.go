package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
HTTP_PORT: 9999
STORE: "sqlite"
DB_PATH: "/tmp/x.db"
KAFKA_BROKERS: ["a:9092", "b:9092"]
JWT_SECRET: "s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 14, cfg.QuickThresholdDays)
	assert.True(t, cfg.SeedMethods)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
HTTP_PORT: 9999
JWT_SECRET: "file"
`)
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("JWT_SECRET", "env")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("QUICK_THRESHOLD_DAYS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.HTTPPort)
	assert.Equal(t, "env", cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 7, cfg.QuickThresholdDays)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "HTTP_PORT: [\n"))
		assert.Error(t, err)
	})
	t.Run("unknown store", func(t *testing.T) {
		_, err := Load(writeConfig(t, "STORE: redis\nJWT_SECRET: s\n"))
		assert.ErrorContains(t, err, "unknown store")
	})
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load(writeConfig(t, "STORE: memory\n"))
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "not-a-number")
		_, err := Load(writeConfig(t, "JWT_SECRET: s\n"))
		assert.Error(t, err)
	})
}

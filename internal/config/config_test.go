package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
quiz:
  fifty_fifty_cost: 100
ai:
  daily_limit: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Quiz.FiftyFiftyCost)
	assert.Equal(t, 1, cfg.Quiz.PointDoublers)
	assert.Equal(t, 5, cfg.AI.DailyLimit)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.AI.DailyLimit)
	assert.Equal(t, 250, cfg.Quiz.FiftyFiftyCost)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("AI_DAILY_LIMIT", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Postgres.URL)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 7, cfg.AI.DailyLimit)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, 2*time.Minute, TTLDuration("2m", time.Second))
	assert.Equal(t, time.Second, TTLDuration("", time.Second))
	assert.Equal(t, time.Second, TTLDuration("soon", time.Second))
}

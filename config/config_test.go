package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "./uploads", cfg.Uploads.Dir)
	assert.Equal(t, "/uploads", cfg.Uploads.URLPrefix)
	assert.Equal(t, "plain", cfg.Auth.PasswordScheme)
	assert.Equal(t, PracticeMemory, cfg.Practice.Store)
	assert.Equal(t, 168*time.Hour, cfg.Practice.TTL)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFileEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
STORE_DRIVER: Memory
UPLOADS:
  DIR: /srv/quizbank/uploads
REDIS:
  ADDR: cache:6379
  DB: 2
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUIZBANK_GIN_MODE=release\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("QUIZBANK_GIN_MODE") })
	t.Setenv("QUIZBANK_SERVER_PORT", ":9090")
	t.Setenv("QUIZBANK_REDIS_DB", "4")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "/srv/quizbank/uploads", cfg.Uploads.Dir)
	assert.Equal(t, "/uploads", cfg.Uploads.URLPrefix)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Redis.DB, "environment beats config.yaml")
	assert.Equal(t, ":9090", cfg.ServerPort)
	assert.Equal(t, "release", cfg.GinMode)
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("QUIZBANK_STORE_DRIVER", "mongo")
	_, err := load(viper.New(), t.TempDir())
	assert.ErrorContains(t, err, "STORE_DRIVER")

	t.Setenv("QUIZBANK_STORE_DRIVER", "memory")
	t.Setenv("QUIZBANK_PRACTICE_STORE", "disk")
	_, err = load(viper.New(), t.TempDir())
	assert.ErrorContains(t, err, "PRACTICE.STORE")
}

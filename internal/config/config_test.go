package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kitchenctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
fast_interval = "500ms"
slow_interval = "4s"
alert_cooldown = "45s"
seed = 42
log_level = "debug"

[notifications]
push = false
critical_only = true
permission = "granted"

[store]
driver = "sqlite"
path = "/tmp/notifications.db"

[delivery]
driver = "redis"
timeout = "1s"

[delivery.redis]
addr = "redis:6379"
channel = "kitchen"
`)
	t.Setenv("KITCHENCTL_CONFIG", configPath)

	cfg, err := config.Load(config.WithArgs([]string{}))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.FastInterval)
	assert.Equal(t, 4*time.Second, cfg.SlowInterval)
	assert.Equal(t, 45*time.Second, cfg.AlertCooldown)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Notifications.Push)
	assert.True(t, cfg.Notifications.Sound, "Expected unset sound to keep default")
	assert.True(t, cfg.Notifications.CriticalOnly)
	assert.Equal(t, "granted", cfg.Notifications.Permission)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/notifications.db", cfg.Store.Path)
	assert.Equal(t, "redis", cfg.Delivery.Driver)
	assert.Equal(t, time.Second, cfg.Delivery.Timeout)
	assert.Equal(t, "redis:6379", cfg.Delivery.Redis.Addr)
	assert.Equal(t, "kitchen", cfg.Delivery.Redis.Channel)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KITCHENCTL_CONFIG", "")

	cfg, err := config.Load(config.WithArgs([]string{}))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, time.Second, cfg.FastInterval)
	assert.Equal(t, 2*time.Second, cfg.SlowInterval)
	assert.Equal(t, 30*time.Second, cfg.AlertCooldown)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.Notifications.Push)
	assert.False(t, cfg.Notifications.CriticalOnly)
	assert.Equal(t, "unknown", cfg.Notifications.Permission)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "log", cfg.Delivery.Driver)
	assert.Equal(t, config.DefaultListenAddr, cfg.HTTP.Listen)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("KITCHENCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs([]string{}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("KITCHENCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs([]string{}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidDriver(t *testing.T) {
	t.Setenv("KITCHENCTL_CONFIG", "")

	_, err := config.Load(config.WithArgs([]string{"--delivery-driver", "carrier-pigeon"}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidDriver))
}

func TestNonPositiveInterval(t *testing.T) {
	t.Setenv("KITCHENCTL_CONFIG", "")

	_, err := config.Load(config.WithArgs([]string{"--fast-interval", "0s"}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "error"
slow_interval = "5s"
`)

	cfg, err := config.Load(
		config.WithConfigFile(configPath),
		config.WithArgs([]string{"--log-level", "debug"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, 5*time.Second, cfg.SlowInterval)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("KITCHENCTL_CONFIG", "")
	t.Setenv("KITCHENCTL_DELIVERY_DRIVER", "none")

	cfg, err := config.Load(config.WithArgs([]string{}))
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Delivery.Driver)
}

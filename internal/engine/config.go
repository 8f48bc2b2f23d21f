package engine

import (
	"time"

	"codeberg.org/mutker/kitchenctl/internal/alert"
	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/notify"
)

// Config holds the tunables of the periodic core.
type Config struct {
	FastInterval    time.Duration
	SlowInterval    time.Duration
	AlertCooldown   time.Duration
	DeliveryTimeout time.Duration
	// Seed for the sensor simulator. Zero picks a time based seed.
	Seed       int64
	Settings   notify.Settings
	Permission notify.Permission
}

func DefaultConfig() Config {
	return Config{
		FastInterval:    config.DefaultFastInterval,
		SlowInterval:    config.DefaultSlowInterval,
		AlertCooldown:   alert.DefaultCooldown,
		DeliveryTimeout: notify.DefaultDeliveryTimeout,
		Settings:        notify.DefaultSettings(),
		Permission:      notify.PermissionUnknown,
	}
}

// FromConfig maps the daemon configuration onto the core.
func FromConfig(cfg *config.Config) (Config, error) {
	perm, err := notify.ParsePermission(cfg.Notifications.Permission)
	if err != nil {
		return Config{}, err
	}

	return Config{
		FastInterval:    cfg.FastInterval,
		SlowInterval:    cfg.SlowInterval,
		AlertCooldown:   cfg.AlertCooldown,
		DeliveryTimeout: cfg.Delivery.Timeout,
		Seed:            cfg.Seed,
		Settings: notify.Settings{
			Push:         cfg.Notifications.Push,
			Sound:        cfg.Notifications.Sound,
			Vibration:    cfg.Notifications.Vibration,
			CriticalOnly: cfg.Notifications.CriticalOnly,
		},
		Permission: perm,
	}, nil
}

package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix       = "KITCHENCTL"
	DefaultLogLevel        = "info"
	DefaultFastInterval    = time.Second
	DefaultSlowInterval    = 2 * time.Second
	DefaultAlertCooldown   = 30 * time.Second
	DefaultDeliveryTimeout = 3 * time.Second
	DefaultStorePath       = "/var/lib/kitchenctl/notifications.db"
	DefaultListenAddr      = ":8080"
)

type Config struct {
	FastInterval  time.Duration      `mapstructure:"fast_interval"`
	SlowInterval  time.Duration      `mapstructure:"slow_interval"`
	AlertCooldown time.Duration      `mapstructure:"alert_cooldown"`
	Seed          int64              `mapstructure:"seed"`
	LogLevel      string             `mapstructure:"log_level"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Store         StoreConfig        `mapstructure:"store"`
	Delivery      DeliveryConfig     `mapstructure:"delivery"`
	HTTP          HTTPConfig         `mapstructure:"http"`
}

type NotificationConfig struct {
	Push         bool   `mapstructure:"push"`
	Sound        bool   `mapstructure:"sound"`
	Vibration    bool   `mapstructure:"vibration"`
	CriticalOnly bool   `mapstructure:"critical_only"`
	Permission   string `mapstructure:"permission"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type DeliveryConfig struct {
	Driver  string        `mapstructure:"driver"`
	Timeout time.Duration `mapstructure:"timeout"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fast_interval", DefaultFastInterval)
	v.SetDefault("slow_interval", DefaultSlowInterval)
	v.SetDefault("alert_cooldown", DefaultAlertCooldown)
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetDefault("notifications.push", true)
	v.SetDefault("notifications.sound", true)
	v.SetDefault("notifications.vibration", true)
	v.SetDefault("notifications.critical_only", false)
	v.SetDefault("notifications.permission", "unknown")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("delivery.driver", "log")
	v.SetDefault("delivery.timeout", DefaultDeliveryTimeout)
	v.SetDefault("delivery.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("delivery.mqtt.client_id", "kitchenctl")
	v.SetDefault("delivery.mqtt.topic", "kitchenctl/notifications")
	v.SetDefault("delivery.redis.addr", "localhost:6379")
	v.SetDefault("delivery.redis.channel", "kitchenctl:notifications")

	v.SetDefault("http.listen", DefaultListenAddr)
}

func newFlagSet(cfgPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("kitchenctl", pflag.ContinueOnError)
	fs.StringVar(cfgPath, "config", "", "Path to the configuration file")
	fs.Duration("fast-interval", DefaultFastInterval, "Interval between timer ticks")
	fs.Duration("slow-interval", DefaultSlowInterval, "Interval between sensor ticks")
	fs.Duration("alert-cooldown", DefaultAlertCooldown, "Minimum time between danger alerts")
	fs.Int64("seed", 0, "Seed for the sensor simulator (0 = time based)")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("store-driver", "memory", "Notification store (memory, sqlite)")
	fs.String("store-path", DefaultStorePath, "Path to the notification database")
	fs.String("delivery-driver", "log", "External delivery channel (none, log, mqtt, redis)")
	fs.String("listen", DefaultListenAddr, "HTTP listen address (empty disables)")

	return fs
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"fast-interval":   "fast_interval",
	"slow-interval":   "slow_interval",
	"alert-cooldown":  "alert_cooldown",
	"seed":            "seed",
	"log-level":       "log_level",
	"store-driver":    "store.driver",
	"store-path":      "store.path",
	"delivery-driver": "delivery.driver",
	"listen":          "http.listen",
}

// Load reads configuration from defaults, the config file, the environment
// and command line flags, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}
	if o.args == nil {
		o.args = os.Args[1:]
	}

	v := viper.New()
	setDefaults(v)

	var flagConfigPath string
	fs := newFlagSet(&flagConfigPath)
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := o.configPath
	if flagConfigPath != "" {
		configPath = flagConfigPath
	}
	if configPath == "" {
		configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName("kitchenctl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/kitchenctl")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.FastInterval <= 0 || c.SlowInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, struct {
			Fast time.Duration
			Slow time.Duration
		}{c.FastInterval, c.SlowInterval})
	}
	if c.AlertCooldown <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "alert_cooldown must be positive")
	}
	if c.Delivery.Timeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "delivery.timeout must be positive")
	}

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return errFactory.WithData(errors.ErrInvalidConfig, "store.path is required for sqlite")
		}
	default:
		return errFactory.WithData(errors.ErrInvalidDriver, "store: "+c.Store.Driver)
	}

	switch c.Delivery.Driver {
	case "none", "log", "mqtt", "redis":
	default:
		return errFactory.WithData(errors.ErrInvalidDriver, "delivery: "+c.Delivery.Driver)
	}

	switch c.Notifications.Permission {
	case "unknown", "granted", "denied":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "notifications.permission: "+c.Notifications.Permission)
	}

	return nil
}

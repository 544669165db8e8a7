package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. POKERVERSE_LISTEN_ADDR.
const EnvPrefix = "POKERVERSE"

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`

	Table   TableConfig   `mapstructure:"table"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
}

type TableConfig struct {
	MaxPlayers    int           `mapstructure:"max_players"`
	SmallBlind    int64         `mapstructure:"small_blind"`
	StartingChips int64         `mapstructure:"starting_chips"`
	TurnTimeout   time.Duration `mapstructure:"turn_timeout"`
	ShowdownDelay time.Duration `mapstructure:"showdown_delay"`
	SeatRelease   time.Duration `mapstructure:"seat_release"`
}

type GatewayConfig struct {
	SendBuffer     int     `mapstructure:"send_buffer"`
	MaxMessageSize int64   `mapstructure:"max_message_size"`
	ActionsPerSec  float64 `mapstructure:"actions_per_sec"`
	ActionBurst    int     `mapstructure:"action_burst"`
	ChatPerSec     float64 `mapstructure:"chat_per_sec"`
	ChatBurst      int     `mapstructure:"chat_burst"`
	AllowedOrigins string  `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

// StoreConfig selects the account and leaderboard backend:
// "memory", "sqlite" or "postgres".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig enables the redis snapshot store when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig enables hand result publication when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// SetDefaults registers every key so that env overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("log_level", "info")

	v.SetDefault("table.max_players", 9)
	v.SetDefault("table.small_blind", 10)
	v.SetDefault("table.starting_chips", 1000)
	v.SetDefault("table.turn_timeout", 30*time.Second)
	v.SetDefault("table.showdown_delay", 3*time.Second)
	v.SetDefault("table.seat_release", 60*time.Second)

	v.SetDefault("gateway.send_buffer", 64)
	v.SetDefault("gateway.max_message_size", 4096)
	v.SetDefault("gateway.actions_per_sec", 10.0)
	v.SetDefault("gateway.action_burst", 20)
	v.SetDefault("gateway.chat_per_sec", 1.0)
	v.SetDefault("gateway.chat_burst", 5)
	v.SetDefault("gateway.allowed_origins", "*")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.cache_size", 4096)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "pokerverse.hands")
}

// Load reads defaults, then the optional file, then POKERVERSE_* variables.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.Table.SmallBlind <= 0 {
		return errors.Errorf("table.small_blind must be > 0, got %d", c.Table.SmallBlind)
	}
	if c.Table.StartingChips < 2*c.Table.SmallBlind {
		return errors.Errorf("table.starting_chips must cover the big blind, got %d", c.Table.StartingChips)
	}
	if c.Table.MaxPlayers < 2 {
		return errors.Errorf("table.max_players must be >= 2, got %d", c.Table.MaxPlayers)
	}
	if c.Gateway.SendBuffer <= 0 {
		return errors.New("gateway.send_buffer must be > 0")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return errors.Errorf("store.dsn is required for driver %s", c.Store.Driver)
		}
	default:
		return errors.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfig reports missing or unusable configuration. It is fatal at startup.
var ErrConfig = errors.New("invalid configuration")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Lock     LockConfig     `mapstructure:"lock"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Points   PointsConfig   `mapstructure:"points"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port"`
	Mode                    string        `mapstructure:"mode"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver      string         `mapstructure:"driver"` // "postgres" | "sqlite"
	AutoMigrate bool           `mapstructure:"auto_migrate"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	SQLite      SQLiteConfig   `mapstructure:"sqlite"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type LockConfig struct {
	Backend string `mapstructure:"backend"` // "redis" | "memory"
}

type JWTConfig struct {
	SigningKey     string        `mapstructure:"signing_key"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type AdminConfig struct {
	UserIDs []string `mapstructure:"user_ids"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PointsConfig is the reward schedule and price list.
type PointsConfig struct {
	SignupBonus   int64 `mapstructure:"signup_bonus"`
	InviterReward int64 `mapstructure:"inviter_reward"`
	InviteeReward int64 `mapstructure:"invitee_reward"`
	ViewCost      int64 `mapstructure:"view_cost"`
	// KeepDebitOnLateQuotaFailure commits the reveal debit even when the
	// quota runs out between the debit and the increment.
	KeepDebitOnLateQuotaFailure bool `mapstructure:"keep_debit_on_late_quota_failure"`
}

type ListingConfig struct {
	DefaultViewLimit int           `mapstructure:"default_view_limit"`
	MaxViewLimit     int           `mapstructure:"max_view_limit"`
	Lifetime         time.Duration `mapstructure:"lifetime"`
	StaleAge         time.Duration `mapstructure:"stale_age"`
	SweepBatchSize   int           `mapstructure:"sweep_batch_size"`
}

type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.graceful_shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.max_open_conns", 20)
	v.SetDefault("database.postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)

	v.SetDefault("lock.backend", "memory")
	v.SetDefault("jwt.issuer", "pointhub")
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("points.signup_bonus", 100)
	v.SetDefault("points.inviter_reward", 10)
	v.SetDefault("points.invitee_reward", 30)
	v.SetDefault("points.view_cost", 1)
	v.SetDefault("points.keep_debit_on_late_quota_failure", false)

	v.SetDefault("listing.default_view_limit", 10)
	v.SetDefault("listing.max_view_limit", 1000)
	v.SetDefault("listing.lifetime", 72*time.Hour)
	v.SetDefault("listing.stale_age", 72*time.Hour)
	v.SetDefault("listing.sweep_batch_size", 500)

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval", time.Hour)
	v.SetDefault("sweeper.lease_ttl", 5*time.Minute)
}

// Load reads config.yaml, overlays environment variables, and returns Config.
// A .env file next to the binary is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable override: DATABASE_POSTGRES_HOST -> database.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that storage credentials and the reward schedule are usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		pg := c.Database.Postgres
		if pg.Host == "" || pg.DB == "" || pg.User == "" {
			return fmt.Errorf("%w: postgres host, db and user are required", ErrConfig)
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("%w: sqlite path is required", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrConfig, c.Database.Driver)
	}

	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Database.Redis.Host == "" {
			return fmt.Errorf("%w: redis host is required for the redis lock backend", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown lock backend %q", ErrConfig, c.Lock.Backend)
	}

	if c.Points.ViewCost <= 0 {
		return fmt.Errorf("%w: points.view_cost must be positive", ErrConfig)
	}
	if c.Points.SignupBonus < 0 || c.Points.InviterReward < 0 || c.Points.InviteeReward < 0 {
		return fmt.Errorf("%w: rewards must not be negative", ErrConfig)
	}
	if c.Listing.DefaultViewLimit < 1 || c.Listing.DefaultViewLimit > c.Listing.MaxViewLimit {
		return fmt.Errorf("%w: listing.default_view_limit out of range", ErrConfig)
	}
	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		return fmt.Errorf("%w: sweeper.interval must be positive", ErrConfig)
	}
	return nil
}

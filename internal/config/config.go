// Package config loads Monedero settings from an optional YAML file overlaid
// with MONEDERO_* environment variables.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// MinBcryptCost is the lowest password hashing cost accepted outside of tests.
const MinBcryptCost = 10

// Config is the full server configuration. Each section maps to a top-level
// YAML key of the same name.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Receipts  ReceiptsConfig  `mapstructure:"receipts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Recurring RecurringConfig `mapstructure:"recurring"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxBodySize caps request bodies in bytes. Larger bodies get 413.
	MaxBodySize int64 `mapstructure:"max_body_size"`

	// CORSAllowedOrigins lists the origins allowed to call the API from a browser.
	// "*" allows any origin.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ServerConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("server.max_body_size must be positive")
	}
	return nil
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`

	// postgres
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// AcquireTimeout bounds how long a request waits for a pooled connection
	// once all MaxOpenConns are busy.
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`

	// sqlite
	Path        string `mapstructure:"path"`         // file path, or ":memory:"
	JournalMode string `mapstructure:"journal_mode"` // WAL, DELETE, TRUNCATE...
	BusyTimeout int    `mapstructure:"busy_timeout"` // milliseconds
}

// DSN returns the PostgreSQL connection URL. Credentials are escaped, so
// passwords may contain any character.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Validate checks the settings of the selected driver.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case "postgres":
		for _, f := range []struct{ name, value string }{
			{"database.host", c.Host},
			{"database.user", c.User},
			{"database.database", c.Database},
		} {
			if f.value == "" {
				return fmt.Errorf("%s is required for postgres driver", f.name)
			}
		}
		if c.MaxOpenConns < 1 {
			return fmt.Errorf("database.max_open_conns must be at least 1")
		}
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("database.path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Driver)
	}
	return nil
}

// RedisConfig configures the optional shared cache and lock.
// When disabled, login attempt counters and locks are kept in process memory.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthConfig configures password hashing, session tokens and the login limiter.
type AuthConfig struct {
	// JWTSecret is the HMAC key used to sign session tokens.
	// Rotating it invalidates every outstanding token.
	JWTSecret string `mapstructure:"jwt_secret"`

	// TokenTTL is the lifetime of an issued session token.
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// Issuer is written to the iss claim and required on verification.
	Issuer string `mapstructure:"issuer"`

	// BcryptCost is the work factor for password hashes.
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// LoginMaxAttempts is the number of failed logins per email tolerated
	// within LoginAttemptWindow. Zero disables the limiter.
	LoginMaxAttempts int `mapstructure:"login_max_attempts"`

	// LoginAttemptWindow is the sliding window for failed login counting.
	LoginAttemptWindow time.Duration `mapstructure:"login_attempt_window"`
}

func (c AuthConfig) validate() error {
	switch {
	case len(c.JWTSecret) < 32:
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	case c.TokenTTL <= 0:
		return fmt.Errorf("auth.token_ttl must be positive")
	case c.BcryptCost < MinBcryptCost || c.BcryptCost > 31:
		return fmt.Errorf("auth.bcrypt_cost must be between %d and 31", MinBcryptCost)
	case c.LoginMaxAttempts < 0:
		return fmt.Errorf("auth.login_max_attempts must not be negative")
	case c.LoginMaxAttempts > 0 && c.LoginAttemptWindow <= 0:
		return fmt.Errorf("auth.login_attempt_window must be positive when the limiter is enabled")
	}
	return nil
}

// ReceiptsConfig holds settings for the S3 compatible bucket storing
// receipt images attached to records.
type ReceiptsConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKeyID       string        `mapstructure:"access_key_id"`
	SecretAccessKey   string        `mapstructure:"secret_access_key"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
}

func (c ReceiptsConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Bucket == "" {
		return fmt.Errorf("receipts.bucket is required when receipts are enabled")
	}
	if c.PresignExpiration <= 0 {
		return fmt.Errorf("receipts.presign_expiration must be positive")
	}
	return nil
}

// LoggingConfig configures the root zerolog logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // zerolog level name
	Format     string `mapstructure:"format"`      // json or console
	Output     string `mapstructure:"output"`      // stdout or stderr
	TimeFormat string `mapstructure:"time_format"` // console timestamps only
}

func (c LoggingConfig) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil || c.Level == "" {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	return nil
}

// MetricsConfig configures the Prometheus scrape listener, which is separate
// from the API listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// RecurringConfig holds settings for the recurring payment processor.
type RecurringConfig struct {
	// Enabled posts due recurring payments in the background.
	Enabled bool `mapstructure:"enabled"`

	// Interval is how often the processor looks for due payments.
	Interval time.Duration `mapstructure:"interval"`

	// BatchSize is the maximum number of payments processed per run.
	BatchSize int `mapstructure:"batch_size"`
}

func (c RecurringConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 {
		return fmt.Errorf("recurring.interval must be positive")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("recurring.batch_size must be at least 1")
	}
	return nil
}

// Load reads and validates the configuration. An empty configPath searches
// ., ./configs and /etc/monedero for config.yaml; a missing file is not an
// error. Environment variables win over file values, with "." in a key
// replaced by "_" (MONEDERO_DATABASE_DRIVER sets database.driver).
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Read loads configuration like Load but skips validation, for tools that
// only need part of it.
func Read(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("MONEDERO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/monedero")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// defaults also registers every key with viper, which AutomaticEnv needs to
// bind the matching environment variable on Unmarshal.
var defaults = map[string]any{
	"server.host":                 "0.0.0.0",
	"server.port":                 8080,
	"server.read_timeout":         15 * time.Second,
	"server.write_timeout":        30 * time.Second,
	"server.idle_timeout":         2 * time.Minute,
	"server.shutdown_timeout":     20 * time.Second,
	"server.max_body_size":        1 << 20,
	"server.cors_allowed_origins": []string{"*"},

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "monedero",
	"database.password":           "",
	"database.database":           "monedero",
	"database.ssl_mode":           "prefer",
	"database.max_open_conns":     20,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  30 * time.Minute,
	"database.conn_max_idle_time": 5 * time.Minute,
	"database.acquire_timeout":    5 * time.Second,
	"database.path":               "./data/monedero.db",
	"database.journal_mode":       "WAL",
	"database.busy_timeout":       5000,

	"redis.enabled":      false,
	"redis.host":         "localhost",
	"redis.port":         6379,
	"redis.password":     "",
	"redis.db":           0,
	"redis.pool_size":    10,
	"redis.dial_timeout": 5 * time.Second,

	"auth.jwt_secret":           "",
	"auth.token_ttl":            7 * 24 * time.Hour,
	"auth.issuer":               "monedero",
	"auth.bcrypt_cost":          12,
	"auth.login_max_attempts":   5,
	"auth.login_attempt_window": 15 * time.Minute,

	"receipts.enabled":            false,
	"receipts.endpoint":           "",
	"receipts.region":             "us-east-1",
	"receipts.bucket":             "monedero-receipts",
	"receipts.access_key_id":      "",
	"receipts.secret_access_key":  "",
	"receipts.use_path_style":     true,
	"receipts.presign_expiration": 15 * time.Minute,

	"logging.level":       "info",
	"logging.format":      "json",
	"logging.output":      "stdout",
	"logging.time_format": time.RFC3339,

	"metrics.enabled": true,
	"metrics.port":    9091,
	"metrics.path":    "/metrics",

	"recurring.enabled":    true,
	"recurring.interval":   time.Hour,
	"recurring.batch_size": 500,
}

// Validate returns the first invalid setting found, section by section.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.Server.validate,
		c.Database.Validate,
		c.Auth.validate,
		c.Receipts.validate,
		c.Recurring.validate,
		c.Logging.validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

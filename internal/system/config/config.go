package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageMySQL  = "mysql"
	StorageRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	Consent ConsentConfig `mapstructure:"consent"`
	Banner  BannerConfig  `mapstructure:"banner"`
	Toast   ToastConfig   `mapstructure:"toast"`
	Session SessionConfig `mapstructure:"session"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig lists the site origins allowed to call the banner API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects and configures the key-value backend holding consent records
type StorageConfig struct {
	Type       string         `mapstructure:"type"`
	QuotaBytes int            `mapstructure:"quota_bytes"`
	MySQL      DatabaseConfig `mapstructure:"mysql"`
	Redis      RedisConfig    `mapstructure:"redis"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// KeyTTL expires stored records; 0 derives it from the consent validity.
	KeyTTL      time.Duration `mapstructure:"key_ttl"`
}

// ConsentConfig holds consent record settings
type ConsentConfig struct {
	StorageKey     string `mapstructure:"storage_key"`
	SchemaVersion  string `mapstructure:"schema_version"`
	ValidityMonths int    `mapstructure:"validity_months"`
}

// BannerConfig holds banner asset settings
type BannerConfig struct {
	// Static marks pages that ship the banner markup inline, so no assets are fetched.
	Static       bool          `mapstructure:"static"`
	AssetBaseURL string        `mapstructure:"asset_base_url"`
	AssetDir     string        `mapstructure:"asset_dir"`
	StylePath    string        `mapstructure:"style_path"`
	MarkupPath   string        `mapstructure:"markup_path"`
	ScriptPath   string        `mapstructure:"script_path"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	Retry        RetryConfig   `mapstructure:"retry"`
}

// RetryConfig holds the asset fetch retry policy
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Factor      float64       `mapstructure:"factor"`
	JitterRatio float64       `mapstructure:"jitter_ratio"`
}

// ToastConfig holds notification settings
type ToastConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

// SessionConfig holds page session settings
type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("COOKIE_CONSENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.mysql.port", 3306)
	v.SetDefault("storage.mysql.max_open_conns", 10)
	v.SetDefault("storage.mysql.max_idle_conns", 5)
	v.SetDefault("storage.mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("storage.redis.dial_timeout", 5*time.Second)

	v.SetDefault("consent.storage_key", "cookiePreferences")
	v.SetDefault("consent.schema_version", "1.0")
	v.SetDefault("consent.validity_months", 6)

	v.SetDefault("banner.asset_dir", "./repository/resources")
	v.SetDefault("banner.style_path", "assets/css/cookie-banner.css")
	v.SetDefault("banner.markup_path", "components/cookie-banner.html")
	v.SetDefault("banner.script_path", "assets/js/cookie-banner.js")
	v.SetDefault("banner.fetch_timeout", 5*time.Second)
	v.SetDefault("banner.retry.max_attempts", 3)
	v.SetDefault("banner.retry.base_delay", time.Second)
	v.SetDefault("banner.retry.factor", 2.0)
	v.SetDefault("banner.retry.jitter_ratio", 0.2)

	v.SetDefault("toast.duration", 3*time.Second)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Storage.Type {
	case StorageMemory:
	case StorageMySQL:
		if config.Storage.MySQL.Hostname == "" {
			return fmt.Errorf("mysql hostname is required")
		}
		if config.Storage.MySQL.Database == "" {
			return fmt.Errorf("mysql database name is required")
		}
	case StorageRedis:
		if config.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", config.Storage.Type)
	}

	if config.Consent.StorageKey == "" {
		return fmt.Errorf("consent storage key is required")
	}
	if config.Consent.ValidityMonths <= 0 {
		return fmt.Errorf("consent validity must be at least one month")
	}

	if !config.Banner.Static && config.Banner.AssetBaseURL == "" {
		return fmt.Errorf("banner asset base URL is required when the banner is loaded dynamically")
	}
	if config.Banner.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("banner retry attempts must be positive")
	}
	if config.Banner.Retry.Factor < 1 {
		return fmt.Errorf("banner retry factor must be >= 1")
	}

	// Opening a page runs the asset loader inside the request; the fallback banner
	// has to reach the client before the write deadline.
	if !config.Banner.Static && config.Server.WriteTimeout > 0 {
		if budget := config.Banner.AssetLoadBudget(); config.Server.WriteTimeout <= budget {
			return fmt.Errorf("server write timeout %s must exceed the banner asset load budget %s",
				config.Server.WriteTimeout, budget)
		}
	}

	return nil
}

// AssetLoadBudget is the longest a single banner asset can take before the loader gives up:
// every attempt timing out plus every backoff delay at its maximum jitter.
func (b *BannerConfig) AssetLoadBudget() time.Duration {
	r := b.Retry
	total := time.Duration(r.MaxAttempts) * b.FetchTimeout
	for n := 1; n < r.MaxAttempts; n++ {
		delay := float64(r.BaseDelay) * math.Pow(r.Factor, float64(n-1)) * (1 + r.JitterRatio)
		total += time.Duration(delay)
	}
	return total
}

// RecordTTL is how long the redis backend keeps a consent record.
func (c *Config) RecordTTL() time.Duration {
	if c.Storage.Redis.KeyTTL > 0 {
		return c.Storage.Redis.KeyTTL
	}
	// Longest possible span of ValidityMonths calendar months, plus a day of slack.
	return time.Duration(c.Consent.ValidityMonths)*31*24*time.Hour + 24*time.Hour
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

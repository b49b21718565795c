// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"threadspire/internal/database"
	"threadspire/internal/featureflags"
	"threadspire/internal/observability"
	"threadspire/internal/service"
	"threadspire/internal/storage"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"APP_ENV"`
	AllowedOrigins   string        `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags     string        `mapstructure:"FEATURE_FLAGS"`
	StorageDriver    string        `mapstructure:"STORAGE_DRIVER"`
	StoragePath      string        `mapstructure:"STORAGE_PATH"`
	StorageNamespace string        `mapstructure:"STORAGE_NAMESPACE"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	DBHost           string        `mapstructure:"DB_HOST"`
	DBPort           string        `mapstructure:"DB_PORT"`
	DBUser           string        `mapstructure:"DB_USER"`
	DBPassword       string        `mapstructure:"DB_PASSWORD"`
	DBName           string        `mapstructure:"DB_NAME"`
	DBSSLMode        string        `mapstructure:"DB_SSLMODE"`
	AuthLatency      time.Duration `mapstructure:"AUTH_LATENCY"`
	TracingEnabled   bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter  string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint     string        `mapstructure:"OTLP_ENDPOINT"`
}

var keys = []string{
	"JWT_SECRET", "PORT", "APP_ENV", "ALLOWED_ORIGINS", "FEATURE_FLAGS",
	"STORAGE_DRIVER", "STORAGE_PATH", "STORAGE_NAMESPACE", "REDIS_URL",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"AUTH_LATENCY", "TRACING_ENABLED", "TRACING_EXPORTER", "OTLP_ENDPOINT",
}

// LoadConfig loads configuration from config.yml in the working directory or
// its parents, the config.<APP_ENV>.yml overlay and the environment.
func LoadConfig() (*Config, error) {
	return Load(".", "..", "../..")
}

// Load is LoadConfig with explicit search paths.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	// the base file is optional
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env != "development" && env != "" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		slog.Info("Loaded profile-specific configuration", slog.String("file", "config."+env+".yml"))
	}

	// Unmarshal only sees env vars for keys viper already knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.DBSSLMode = strings.ToLower(strings.TrimSpace(cfg.DBSSLMode))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8375")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	v.SetDefault("FEATURE_FLAGS", featureflags.Default)
	v.SetDefault("STORAGE_DRIVER", storage.DriverMemory)
	v.SetDefault("STORAGE_PATH", "data/threadspire")
	v.SetDefault("STORAGE_NAMESPACE", "threadspire")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "threadspire")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("AUTH_LATENCY", "500ms")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AuthLatency < 0 {
		return errors.New("AUTH_LATENCY must not be negative")
	}
	switch c.StorageDriver {
	case storage.DriverMemory, storage.DriverRedis, storage.DriverSQLite,
		storage.DriverPostgres, storage.DriverPebble, storage.DriverBadger:
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownDriver, c.StorageDriver)
	}
	switch c.StorageDriver {
	case storage.DriverPebble, storage.DriverBadger:
		if c.StoragePath == "" {
			return fmt.Errorf("STORAGE_PATH is required for the %s driver", c.StorageDriver)
		}
	}

	if !c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			slog.Warn("JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
		return nil
	}

	if c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed from the default value in production")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.StorageDriver == storage.DriverMemory {
		return errors.New("STORAGE_DRIVER=memory loses all data on restart and is not allowed in production")
	}
	if c.StorageDriver == storage.DriverPostgres {
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
	}
	if c.AllowedOrigins == "*" {
		slog.Warn("ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
	}
	return nil
}

// Storage maps the settings onto a storage.Config.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Driver:    c.StorageDriver,
		Path:      c.StoragePath,
		Namespace: c.StorageNamespace,
		RedisURL:  c.RedisURL,
		SQL: database.Config{
			Driver:   c.StorageDriver,
			Host:     c.DBHost,
			Port:     c.DBPort,
			User:     c.DBUser,
			Password: c.DBPassword,
			Name:     c.DBName,
			SSLMode:  c.DBSSLMode,
		},
	}
}

// Auth maps the settings onto the auth service configuration.
func (c *Config) Auth() service.AuthConfig {
	return service.AuthConfig{Latency: c.AuthLatency}
}

// Tracing maps the settings onto the tracer configuration.
func (c *Config) Tracing(version string) observability.TracingConfig {
	return observability.TracingConfig{
		ServiceName:    "threadspire",
		ServiceVersion: version,
		Environment:    c.Env,
		Enabled:        c.TracingEnabled,
		Exporter:       c.TracingExporter,
		OTLPEndpoint:   c.OTLPEndpoint,
		SamplerRatio:   1,
	}
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"threadspire/internal/featureflags"
	"threadspire/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSecret = "secure-secret-at-least-32-chars-long"

func validConfig() *Config {
	return &Config{
		Port:          "8080",
		Env:           "development",
		JWTSecret:     strongSecret,
		StorageDriver: storage.DriverMemory,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"short secret in development", func(c *Config) { c.JWTSecret = "short" }, false},
		{"negative latency", func(c *Config) { c.AuthLatency = -time.Second }, true},
		{"unknown driver", func(c *Config) { c.StorageDriver = "etcd" }, true},
		{"pebble without path", func(c *Config) { c.StorageDriver = storage.DriverPebble }, true},
		{"badger with path", func(c *Config) {
			c.StorageDriver, c.StoragePath = storage.DriverBadger, "/tmp/x"
		}, false},
		{"production default secret", func(c *Config) {
			c.Env, c.StorageDriver, c.StoragePath = "production", storage.DriverPebble, "/data"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production memory driver", func(c *Config) { c.Env = "prod" }, true},
		{"production postgres without ssl", func(c *Config) {
			c.Env, c.StorageDriver = "production", storage.DriverPostgres
			c.DBPassword, c.DBSSLMode = "s3cret-pass", "disable"
		}, true},
		{"production postgres", func(c *Config) {
			c.Env, c.StorageDriver = "production", storage.DriverPostgres
			c.DBPassword, c.DBSSLMode = "s3cret-pass", "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "  Redis ")
	t.Setenv("AUTH_LATENCY", "50ms")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "8375", c.Port)
	assert.Equal(t, storage.DriverRedis, c.StorageDriver)
	assert.Equal(t, 50*time.Millisecond, c.AuthLatency)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "threadspire", c.StorageNamespace)
	assert.Equal(t, featureflags.Default, c.FeatureFlags)
}

func TestLoad_ProfileOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("PORT: \"9000\"\nFEATURE_FLAGS: analytics=on\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yml"), []byte("PORT: \"9100\"\n"), 0o600))
	t.Setenv("APP_ENV", "test")

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9100", c.Port)
	assert.Equal(t, "analytics=on", c.FeatureFlags)
}

func TestLoad_MissingProfile(t *testing.T) {
	t.Setenv("APP_ENV", "staging")

	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "config.staging.yml")
}

func TestConfig_Mappings(t *testing.T) {
	t.Parallel()
	c := validConfig()
	c.StorageDriver, c.StoragePath, c.StorageNamespace = storage.DriverPostgres, "/data", "ts"
	c.DBHost, c.DBName = "db", "threads"
	c.AllowedOrigins = " http://a.test , ,http://b.test"
	c.AuthLatency = time.Second

	sc := c.Storage()
	assert.Equal(t, storage.DriverPostgres, sc.Driver)
	assert.Equal(t, "ts", sc.Namespace)
	assert.Equal(t, "db", sc.SQL.Host)
	assert.Equal(t, "threads", sc.SQL.Name)
	assert.Equal(t, time.Second, c.Auth().Latency)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
	assert.Equal(t, "threadspire", c.Tracing("dev").ServiceName)
}

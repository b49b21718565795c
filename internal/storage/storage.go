// Package storage provides the string-keyed key-value backends the
// persistence mirror writes to.
package storage

import (
	"context"
	"errors"
	"fmt"

	"threadspire/internal/cache"
	"threadspire/internal/database"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPebble   = "pebble"
	DriverBadger   = "badger"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Backend is a string-keyed byte store. Get reports found=false for a
// missing key instead of returning an error.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver    string
	Path      string // pebble/badger directory, sqlite file
	Namespace string
	RedisURL  string
	SQL       database.Config
}

// Open builds the backend named by cfg.Driver, scoped to cfg.Namespace.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	b, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Namespace != "" {
		b = WithNamespace(b, cfg.Namespace)
	}
	return Instrument(b, cfg.Driver), nil
}

func openDriver(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedis(client), nil
	case DriverSQLite, DriverPostgres:
		sqlCfg := cfg.SQL
		sqlCfg.Driver = cfg.Driver
		if sqlCfg.Driver == DriverSQLite && sqlCfg.Path == "" {
			sqlCfg.Path = cfg.Path
		}
		db, err := database.Connect(sqlCfg)
		if err != nil {
			return nil, err
		}
		b := NewSQL(db)
		if err := b.Migrate(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		return b, nil
	case DriverPebble:
		return OpenPebble(cfg.Path)
	case DriverBadger:
		bc := DefaultBadgerConfig()
		bc.Path = cfg.Path
		return OpenBadger(bc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

type namespaced struct {
	Backend
	prefix string
}

// WithNamespace prefixes every key with "ns:".
func WithNamespace(b Backend, ns string) Backend {
	return &namespaced{Backend: b, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.Backend.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.Backend.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.Backend.Delete(ctx, n.prefix+key)
}

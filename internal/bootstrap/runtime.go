// Package bootstrap assembles the ThreadSpire runtime shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"threadspire/internal/cache"
	"threadspire/internal/config"
	"threadspire/internal/featureflags"
	"threadspire/internal/notifications"
	"threadspire/internal/observability"
	"threadspire/internal/persistence"
	"threadspire/internal/seed"
	"threadspire/internal/server"
	"threadspire/internal/service"
	"threadspire/internal/state"
	"threadspire/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty store with generated demo data.
	SeedDemo bool
	// Events starts the change-event publisher when Redis is configured.
	Events bool
}

// Runtime owns the store, its persistence and the services built on it.
type Runtime struct {
	Config      *config.Config
	Backend     storage.Backend
	Mirror      *persistence.Mirror
	Store       *state.Store
	Auth        *service.AuthService
	Threads     *service.ThreadService
	Collections *service.CollectionService
	Flags       *featureflags.Manager
	Redis       *redis.Client
	Notifier    *notifications.Notifier

	cancel  context.CancelFunc
	closers []func() error
}

// InitRuntime opens storage, rehydrates the store and wires the services.
// Redis is optional: when it cannot be reached, rate limiting falls back to
// its bypass and events are disabled.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg, Flags: featureflags.NewManager(cfg.FeatureFlags)}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	backend, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		return nil, fmt.Errorf("storage open failed: %w", err)
	}
	rt.Backend = backend
	rt.closers = append(rt.closers, backend.Close)

	rt.Store = state.NewStore(state.State{}, state.WithLogger(observability.Logger))
	rt.closers = append(rt.closers, func() error { rt.Store.Close(); return nil })

	rt.Mirror = persistence.NewMirror(backend)
	if _, err := rt.Mirror.Rehydrate(ctx, rt.Store); err != nil {
		return nil, fmt.Errorf("rehydrate failed: %w", err)
	}
	rt.Mirror.Attach(rt.Store)

	rt.Auth = service.NewAuthService(rt.Store, rt.Mirror, cfg.Auth())
	rt.Threads = service.NewThreadService(rt.Store)
	rt.Collections = service.NewCollectionService(rt.Store)

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			observability.Logger.WarnContext(ctx, "redis unavailable, continuing without it",
				slog.String("error", err.Error()))
		} else {
			rt.Redis = client
			rt.closers = append(rt.closers, client.Close)
		}
	}

	rt.Notifier = notifications.NewNotifier(rt.Redis)
	if opts.Events && rt.Redis != nil {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		rt.cancel = cancel
		go rt.Notifier.Run(runCtx)
		rt.Store.Subscribe(rt.Notifier.Listener())
	}

	if opts.SeedDemo {
		if err := rt.seedIfEmpty(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

func (rt *Runtime) seedIfEmpty(ctx context.Context) error {
	users, err := rt.Mirror.RegisteredUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 || len(rt.Store.Snapshot().Threads) > 0 {
		return nil
	}
	_, err = rt.Seeder().Run(ctx, seed.DefaultOptions())
	return err
}

// Seeder returns a seeder over the runtime's services.
func (rt *Runtime) Seeder() *seed.Seeder {
	return seed.NewSeeder(rt.Auth, rt.Threads, rt.Collections)
}

// ServerDeps returns the collaborators for server.NewServer.
func (rt *Runtime) ServerDeps() server.Deps {
	return server.Deps{
		Config:      rt.Config,
		Store:       rt.Store,
		Backend:     rt.Backend,
		Redis:       rt.Redis,
		Auth:        rt.Auth,
		Threads:     rt.Threads,
		Collections: rt.Collections,
		Flags:       rt.Flags,
	}
}

// Close stops the event publisher and releases resources in reverse order
// of acquisition.
func (rt *Runtime) Close() error {
	if rt.cancel != nil {
		rt.cancel()
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

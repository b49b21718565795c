// Package persistence mirrors the store's durable slices into a key-value
// backend and restores them at startup.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"threadspire/internal/models"
	"threadspire/internal/observability"
	"threadspire/internal/state"
	"threadspire/internal/storage"
)

// Storage keys. Values are JSON documents.
const (
	KeyUser            = "user"
	KeyThreads         = "threads"
	KeyCollections     = "collections"
	KeyRegisteredUsers = "registeredUsers"
)

// Keys lists every key the mirror owns.
var Keys = []string{KeyUser, KeyThreads, KeyCollections, KeyRegisteredUsers}

// Mirror writes committed state to a backend.
type Mirror struct {
	backend storage.Backend
	logger  *slog.Logger
}

// NewMirror returns a mirror over backend.
func NewMirror(backend storage.Backend) *Mirror {
	return &Mirror{backend: backend, logger: observability.Logger}
}

// Backend exposes the underlying store, e.g. for readiness checks.
func (m *Mirror) Backend() storage.Backend {
	return m.backend
}

// Rehydrate seeds store from the persisted keys in a single commit. Missing
// keys leave the corresponding slice empty.
func (m *Mirror) Rehydrate(ctx context.Context, store *state.Store) (state.State, error) {
	var user *models.User
	var u models.User
	found, err := m.read(ctx, KeyUser, &u)
	if err != nil {
		return state.State{}, err
	}
	if found {
		user = &u
	}

	threads := []models.Thread{}
	if _, err := m.read(ctx, KeyThreads, &threads); err != nil {
		return state.State{}, err
	}

	collections := []models.Collection{}
	if _, err := m.read(ctx, KeyCollections, &collections); err != nil {
		return state.State{}, err
	}

	next, err := store.Dispatch(ctx, state.Batch{
		state.SetUser{User: user},
		state.SetThreads{Threads: threads},
		state.SetCollections{Collections: collections},
	})
	if err != nil {
		return state.State{}, err
	}

	m.logger.InfoContext(ctx, "state rehydrated",
		slog.Bool("authenticated", next.IsAuthenticated),
		slog.Int("threads", len(next.Threads)),
		slog.Int("collections", len(next.Collections)),
	)
	return next, nil
}

// Attach subscribes the mirror to store and returns the unsubscribe function.
// Each commit that replaced the user, threads or collections slice is written
// through before the commit returns. Failures are logged and counted only.
func (m *Mirror) Attach(store *state.Store) func() {
	return store.Subscribe(m.onCommit)
}

func (m *Mirror) onCommit(ctx context.Context, c state.Commit) {
	if c.Changed.Has(state.ChangedUser) {
		if c.Next.User != nil {
			_ = m.write(ctx, KeyUser, c.Next.User)
		} else {
			m.remove(ctx, KeyUser)
		}
	}
	if c.Changed.Has(state.ChangedThreads) {
		threads := c.Next.Threads
		if threads == nil {
			threads = []models.Thread{}
		}
		_ = m.write(ctx, KeyThreads, threads)
	}
	if c.Changed.Has(state.ChangedCollections) {
		collections := c.Next.Collections
		if collections == nil {
			collections = []models.Collection{}
		}
		_ = m.write(ctx, KeyCollections, collections)
	}
}

// RegisteredUsers returns the credential records.
func (m *Mirror) RegisteredUsers(ctx context.Context) ([]models.RegisteredUser, error) {
	users := []models.RegisteredUser{}
	if _, err := m.read(ctx, KeyRegisteredUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveRegisteredUsers replaces the credential records.
func (m *Mirror) SaveRegisteredUsers(ctx context.Context, users []models.RegisteredUser) error {
	return m.write(ctx, KeyRegisteredUsers, users)
}

func (m *Mirror) read(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := m.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Mirror) write(ctx context.Context, key string, v any) (err error) {
	done := observability.TrackMirrorWrite(key)
	defer func() { done(err) }()

	raw, err := json.Marshal(v)
	if err != nil {
		m.logger.ErrorContext(ctx, "mirror encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := m.backend.Set(ctx, key, raw); err != nil {
		m.logger.ErrorContext(ctx, "mirror write failed", slog.String("key", key), slog.String("error", err.Error()))
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (m *Mirror) remove(ctx context.Context, key string) {
	if err := m.backend.Delete(ctx, key); err != nil {
		m.logger.ErrorContext(ctx, "mirror delete failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

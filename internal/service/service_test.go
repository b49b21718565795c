package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"threadspire/internal/models"
	"threadspire/internal/persistence"
	"threadspire/internal/state"
	"threadspire/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store       *state.Store
	backend     *storage.Memory
	auth        *AuthService
	threads     *ThreadService
	collections *CollectionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := state.NewStore(state.State{})
	t.Cleanup(store.Close)

	backend := storage.NewMemory()
	mirror := persistence.NewMirror(backend)
	mirror.Attach(store)

	clock := WithClock(func() time.Time { return epoch })
	return &fixture{
		store:       store,
		backend:     backend,
		auth:        NewAuthService(store, mirror, AuthConfig{BcryptCost: bcrypt.MinCost}, clock),
		threads:     NewThreadService(store, clock),
		collections: NewCollectionService(store, clock),
	}
}

func (f *fixture) signUp(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Password: "patience42",
		Username: username,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) publish(t *testing.T, title string, segments ...string) string {
	t.Helper()
	id, err := f.threads.CreateThread(context.Background(), CreateThreadInput{
		Title:    title,
		Segments: segments,
		Tags:     []string{"wisdom"},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) thread(t *testing.T, id string) models.Thread {
	t.Helper()
	th, ok := f.store.Snapshot().Thread(id)
	require.True(t, ok, "thread %s not in state", id)
	return th
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

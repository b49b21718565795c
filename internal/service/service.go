// Package service implements the actions that validate intent and submit
// transitions to the state store.
package service

import (
	"time"

	"threadspire/internal/models"
	"threadspire/internal/state"
)

// Option customizes a service.
type Option func(*base)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithIDGenerator replaces models.NewID, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(b *base) { b.newID = newID }
}

type base struct {
	store *state.Store
	now   func() time.Time
	newID func() string
}

func newBase(store *state.Store, opts []Option) base {
	b := base{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: models.NewID,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func requireUser(cur state.State) (*models.User, error) {
	if cur.User == nil {
		return nil, models.NewNotAuthenticatedError()
	}
	return cur.User, nil
}

// visibleThread resolves a thread the way viewerID sees it: drafts are only
// visible to their author. An empty viewerID is an anonymous reader.
func visibleThread(cur state.State, viewerID, threadID string) (models.Thread, error) {
	th, ok := cur.Thread(threadID)
	if !ok || (th.IsDraft && (viewerID == "" || th.AuthorID != viewerID)) {
		return models.Thread{}, models.NewNotFoundError("Thread", threadID)
	}
	return th, nil
}

// after returns now, or a moment later than prev if the clock has not moved.
func after(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

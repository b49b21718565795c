// Package state holds the application state and the transitions that change it.
//
// A State value is immutable once published: every transition builds a new
// State by structural replacement and leaves its input untouched, so readers
// can hold on to a snapshot without locking.
package state

import "threadspire/internal/models"

// State is the authoritative in-memory snapshot of the application.
type State struct {
	User            *models.User
	Threads         []models.Thread
	Collections     []models.Collection
	IsAuthenticated bool
	Loading         bool
}

// Session returns the authentication slice of the state.
func (s State) Session() models.Session {
	return models.Session{
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated,
		Loading:         s.Loading,
	}
}

// UserID returns the signed-in user's id, or "" when signed out.
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Thread looks up a thread by id.
func (s State) Thread(id string) (models.Thread, bool) {
	if i := threadIndex(s.Threads, id); i >= 0 {
		return s.Threads[i], true
	}
	return models.Thread{}, false
}

// Collection looks up a collection by id.
func (s State) Collection(id string) (models.Collection, bool) {
	if i := collectionIndex(s.Collections, id); i >= 0 {
		return s.Collections[i], true
	}
	return models.Collection{}, false
}

// Change is a bit set of the state slices a commit replaced.
type Change uint8

const (
	ChangedUser Change = 1 << iota
	ChangedThreads
	ChangedCollections
	ChangedLoading
)

// Has reports whether every bit of o is set in c.
func (c Change) Has(o Change) bool { return c&o == o }

// Diff reports which slices differ between prev and next. Slices are compared
// by identity, which is sound because transitions never modify in place.
func Diff(prev, next State) Change {
	var c Change
	if prev.User != next.User || prev.IsAuthenticated != next.IsAuthenticated {
		c |= ChangedUser
	}
	if !sameSlice(prev.Threads, next.Threads) {
		c |= ChangedThreads
	}
	if !sameSlice(prev.Collections, next.Collections) {
		c |= ChangedCollections
	}
	if prev.Loading != next.Loading {
		c |= ChangedLoading
	}
	return c
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func threadIndex(threads []models.Thread, id string) int {
	for i := range threads {
		if threads[i].ID == id {
			return i
		}
	}
	return -1
}

func collectionIndex(collections []models.Collection, id string) int {
	for i := range collections {
		if collections[i].ID == id {
			return i
		}
	}
	return -1
}

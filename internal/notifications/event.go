package notifications

import (
	"time"

	"threadspire/internal/models"
	"threadspire/internal/state"
)

// Event is the wire form of one commit. It names what changed without
// carrying user data.
type Event struct {
	ID            string       `json:"id"`
	Kinds         []state.Kind `json:"kinds"`
	Changed       []string     `json:"changed"`
	ThreadIDs     []string     `json:"threadIds,omitempty"`
	CollectionIDs []string     `json:"collectionIds,omitempty"`
	Threads       int          `json:"threads"`
	Collections   int          `json:"collections"`
	At            time.Time    `json:"at"`
}

// EventFromCommit summarizes c.
func EventFromCommit(c state.Commit, at time.Time) Event {
	ev := Event{
		ID:          models.NewID(),
		Kinds:       []state.Kind{},
		Changed:     changedNames(c.Changed),
		Threads:     len(c.Next.Threads),
		Collections: len(c.Next.Collections),
		At:          at.UTC(),
	}
	threads := newIDSet()
	collections := newIDSet()
	for _, t := range state.Flatten(c.Transitions...) {
		ev.Kinds = append(ev.Kinds, t.Kind())
		switch t := t.(type) {
		case state.AddThread:
			threads.add(t.Thread.ID)
		case state.UpdateThread:
			threads.add(t.Thread.ID)
		case state.DeleteThread:
			threads.add(t.ThreadID)
		case state.ReactToSegment:
			threads.add(t.ThreadID)
		case state.BookmarkThread:
			threads.add(t.ThreadID)
		case state.IncrementViews:
			threads.add(t.ThreadID)
		case state.AddCollection:
			collections.add(t.Collection.ID)
		case state.UpdateCollection:
			collections.add(t.Collection.ID)
		case state.DeleteCollection:
			collections.add(t.CollectionID)
		}
	}
	ev.ThreadIDs = threads.ids
	ev.CollectionIDs = collections.ids
	return ev
}

func changedNames(c state.Change) []string {
	out := []string{}
	for _, n := range []struct {
		bit  state.Change
		name string
	}{
		{state.ChangedUser, "user"},
		{state.ChangedThreads, "threads"},
		{state.ChangedCollections, "collections"},
		{state.ChangedLoading, "loading"},
	} {
		if c.Has(n.bit) {
			out = append(out, n.name)
		}
	}
	return out
}

type idSet struct {
	seen map[string]struct{}
	ids  []string
}

func newIDSet() *idSet { return &idSet{seen: make(map[string]struct{})} }

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok || id == "" {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

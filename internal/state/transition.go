package state

import "threadspire/internal/models"

// Kind names a transition for logging and metrics.
type Kind string

const (
	KindSetUser          Kind = "set_user"
	KindSetThreads       Kind = "set_threads"
	KindSetCollections   Kind = "set_collections"
	KindSetLoading       Kind = "set_loading"
	KindAddThread        Kind = "add_thread"
	KindUpdateThread     Kind = "update_thread"
	KindDeleteThread     Kind = "delete_thread"
	KindAddCollection    Kind = "add_collection"
	KindUpdateCollection Kind = "update_collection"
	KindDeleteCollection Kind = "delete_collection"
	KindReactToSegment   Kind = "react_to_segment"
	KindBookmarkThread   Kind = "bookmark_thread"
	KindIncrementViews   Kind = "increment_views"
	KindBatch            Kind = "batch"
)

// Transition is one named state change. The set of transitions is closed:
// only the types declared in this package implement it.
type Transition interface {
	Kind() Kind
	apply(State) State
}

// SetUser replaces the signed-in user; nil signs out.
type SetUser struct{ User *models.User }

// SetThreads bulk-replaces the thread list.
type SetThreads struct{ Threads []models.Thread }

// SetCollections bulk-replaces the collection list.
type SetCollections struct{ Collections []models.Collection }

// SetLoading toggles the loading flag.
type SetLoading struct{ Loading bool }

// AddThread prepends a thread.
type AddThread struct{ Thread models.Thread }

// UpdateThread replaces the thread with the same id.
type UpdateThread struct{ Thread models.Thread }

// DeleteThread removes the thread with the given id.
type DeleteThread struct{ ThreadID string }

// AddCollection appends a collection.
type AddCollection struct{ Collection models.Collection }

// UpdateCollection replaces the collection with the same id.
type UpdateCollection struct{ Collection models.Collection }

// DeleteCollection removes the collection with the given id.
type DeleteCollection struct{ CollectionID string }

// ReactToSegment sets UserID's single reaction on a segment.
type ReactToSegment struct {
	ThreadID  string
	SegmentID string
	Reaction  models.ReactionKind
	UserID    string
}

// BookmarkThread toggles UserID in the thread's bookmarks.
type BookmarkThread struct {
	ThreadID string
	UserID   string
}

// IncrementViews adds one view to a thread.
type IncrementViews struct{ ThreadID string }

// Batch applies several transitions as one atomic step.
type Batch []Transition

func (SetUser) Kind() Kind          { return KindSetUser }
func (SetThreads) Kind() Kind       { return KindSetThreads }
func (SetCollections) Kind() Kind   { return KindSetCollections }
func (SetLoading) Kind() Kind       { return KindSetLoading }
func (AddThread) Kind() Kind        { return KindAddThread }
func (UpdateThread) Kind() Kind     { return KindUpdateThread }
func (DeleteThread) Kind() Kind     { return KindDeleteThread }
func (AddCollection) Kind() Kind    { return KindAddCollection }
func (UpdateCollection) Kind() Kind { return KindUpdateCollection }
func (DeleteCollection) Kind() Kind { return KindDeleteCollection }
func (ReactToSegment) Kind() Kind   { return KindReactToSegment }
func (BookmarkThread) Kind() Kind   { return KindBookmarkThread }
func (IncrementViews) Kind() Kind   { return KindIncrementViews }
func (Batch) Kind() Kind            { return KindBatch }

// Flatten expands nested batches into a flat list of leaf transitions.
func Flatten(ts ...Transition) []Transition {
	out := make([]Transition, 0, len(ts))
	for _, t := range ts {
		if b, ok := t.(Batch); ok {
			out = append(out, Flatten(b...)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

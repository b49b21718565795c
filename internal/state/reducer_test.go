package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadspire/internal/models"
)

func sampleThread(id string, segIDs ...string) models.Thread {
	segs := make([]models.Segment, 0, len(segIDs))
	for i, sid := range segIDs {
		segs = append(segs, models.Segment{ID: sid, Content: "content " + sid, Order: i})
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Thread{
		ID:        id,
		Title:     "Thread " + id,
		AuthorID:  "author",
		Segments:  segs,
		Tags:      []string{},
		Bookmarks: []string{},
		CreatedAt: now,
		UpdatedAt: now,
		Lineage:   models.Original(),
	}
}

func TestReduce_AddThreadPrepends(t *testing.T) {
	t.Parallel()

	s := State{Threads: []models.Thread{sampleThread("a", "s1")}}
	next := Reduce(s, AddThread{Thread: sampleThread("b", "s2")})

	require.Len(t, next.Threads, 2)
	assert.Equal(t, "b", next.Threads[0].ID)
	assert.Equal(t, "a", next.Threads[1].ID)
	assert.Len(t, s.Threads, 1, "input state must not change")
}

func TestReduce_AddCollectionAppends(t *testing.T) {
	t.Parallel()

	s := State{Collections: []models.Collection{{ID: "c1"}}}
	next := Reduce(s, AddCollection{Collection: models.Collection{ID: "c2"}})

	require.Len(t, next.Collections, 2)
	assert.Equal(t, "c2", next.Collections[1].ID)
	assert.Len(t, s.Collections, 1)
}

func TestReduce_UnknownTargetsAreNoOps(t *testing.T) {
	t.Parallel()

	s := State{
		Threads:     []models.Thread{sampleThread("a", "s1")},
		Collections: []models.Collection{{ID: "c1"}},
	}

	tests := []struct {
		name string
		tr   Transition
	}{
		{"update thread", UpdateThread{Thread: sampleThread("missing")}},
		{"delete thread", DeleteThread{ThreadID: "missing"}},
		{"update collection", UpdateCollection{Collection: models.Collection{ID: "missing"}}},
		{"delete collection", DeleteCollection{CollectionID: "missing"}},
		{"react unknown thread", ReactToSegment{ThreadID: "missing", SegmentID: "s1", Reaction: models.ReactionFire, UserID: "u"}},
		{"react unknown segment", ReactToSegment{ThreadID: "a", SegmentID: "missing", Reaction: models.ReactionFire, UserID: "u"}},
		{"bookmark", BookmarkThread{ThreadID: "missing", UserID: "u"}},
		{"views", IncrementViews{ThreadID: "missing"}},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Reduce(s, tt.tr)
			assert.Equal(t, Change(0), Diff(s, next))
		})
	}
}

func TestReduce_BookmarkTogglesBackToOriginal(t *testing.T) {
	t.Parallel()

	s := State{Threads: []models.Thread{sampleThread("a", "s1")}}
	once := Reduce(s, BookmarkThread{ThreadID: "a", UserID: "u1"})
	twice := Reduce(once, BookmarkThread{ThreadID: "a", UserID: "u1"})

	assert.Equal(t, []string{"u1"}, once.Threads[0].Bookmarks)
	assert.Empty(t, twice.Threads[0].Bookmarks)
	assert.Empty(t, s.Threads[0].Bookmarks)
}

func TestReduce_ReactionsAreExclusivePerUser(t *testing.T) {
	t.Parallel()

	s := State{Threads: []models.Thread{sampleThread("t", "s")}}
	s = Reduce(s, ReactToSegment{ThreadID: "t", SegmentID: "s", Reaction: models.ReactionFire, UserID: "u"})
	s = Reduce(s, ReactToSegment{ThreadID: "t", SegmentID: "s", Reaction: models.ReactionInsight, UserID: "u"})

	reactions := s.Threads[0].Segments[0].Reactions
	assert.Equal(t, models.Reactions{models.ReactionInsight: {"u"}}, reactions)
	assert.Equal(t, 1, reactions.Count())
}

func TestReduce_ReactDoesNotMutatePreviousState(t *testing.T) {
	t.Parallel()

	s := State{Threads: []models.Thread{sampleThread("t", "s")}}
	next := Reduce(s, ReactToSegment{ThreadID: "t", SegmentID: "s", Reaction: models.ReactionCalm, UserID: "u"})

	assert.Empty(t, s.Threads[0].Segments[0].Reactions)
	assert.Equal(t, []string{"u"}, next.Threads[0].Segments[0].Reactions[models.ReactionCalm])
	assert.Equal(t, ChangedThreads, Diff(s, next))
}

func TestReduce_IncrementViews(t *testing.T) {
	t.Parallel()

	s := State{Threads: []models.Thread{sampleThread("a"), sampleThread("b")}}
	for i := 0; i < 3; i++ {
		s = Reduce(s, IncrementViews{ThreadID: "b"})
	}
	assert.Equal(t, 0, s.Threads[0].Views)
	assert.Equal(t, 3, s.Threads[1].Views)
}

func TestReduce_SetUserTracksAuthentication(t *testing.T) {
	t.Parallel()

	u := &models.User{ID: "u1", Email: "a@b.c", Username: "a"}
	in := Reduce(State{}, SetUser{User: u})
	assert.True(t, in.IsAuthenticated)
	assert.Equal(t, "u1", in.UserID())

	out := Reduce(in, SetUser{})
	assert.False(t, out.IsAuthenticated)
	assert.Equal(t, "", out.UserID())
	assert.Equal(t, ChangedUser, Diff(in, out))
}

func TestReduce_BatchAppliesInOrder(t *testing.T) {
	t.Parallel()

	s := State{Threads: []models.Thread{sampleThread("a", "s1")}}
	next := Reduce(s, Batch{
		AddThread{Thread: sampleThread("fork", "s9")},
		UpdateThread{Thread: func() models.Thread {
			th := sampleThread("a", "s1")
			th.Forks = []string{"fork"}
			return th
		}()},
		SetLoading{Loading: true},
	})

	require.Len(t, next.Threads, 2)
	assert.Equal(t, "fork", next.Threads[0].ID)
	assert.Equal(t, []string{"fork"}, next.Threads[1].Forks)
	assert.True(t, next.Loading)
	assert.Equal(t, ChangedThreads|ChangedLoading, Diff(s, next))
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	flat := Flatten(SetLoading{}, Batch{IncrementViews{}, Batch{DeleteThread{}}})
	kinds := make([]Kind, 0, len(flat))
	for _, tr := range flat {
		kinds = append(kinds, tr.Kind())
	}
	assert.Equal(t, []Kind{KindSetLoading, KindIncrementViews, KindDeleteThread}, kinds)
}

func TestState_Lookups(t *testing.T) {
	t.Parallel()

	s := State{
		Threads:     []models.Thread{sampleThread("a")},
		Collections: []models.Collection{{ID: "c"}},
	}
	_, ok := s.Thread("a")
	assert.True(t, ok)
	_, ok = s.Thread("z")
	assert.False(t, ok)
	_, ok = s.Collection("c")
	assert.True(t, ok)
	_, ok = s.Collection("z")
	assert.False(t, ok)
}

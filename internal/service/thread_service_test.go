package service

import (
	"context"
	"sync"
	"testing"

	"threadspire/internal/models"
	"threadspire/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadService_CreateThread(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	u := f.signUp(t, "owl")

	id, err := f.threads.CreateThread(context.Background(), CreateThreadInput{
		Title:    "  On patience  ",
		Segments: []string{"Wait.", "Then wait more."},
		Tags:     []string{" calm", "calm", "", "stoicism"},
		IsDraft:  true,
	})
	require.NoError(t, err)

	th := f.thread(t, id)
	assert.Equal(t, "On patience", th.Title)
	assert.Equal(t, u.ID, th.AuthorID)
	assert.Equal(t, "owl", th.AuthorName)
	assert.Equal(t, []string{"calm", "stoicism"}, th.Tags)
	assert.True(t, th.IsDraft)
	assert.Empty(t, th.Bookmarks)
	assert.Empty(t, th.Forks)
	assert.Zero(t, th.Views)
	assert.False(t, th.Lineage.IsFork())
	assert.Equal(t, epoch, th.CreatedAt)
	require.Len(t, th.Segments, 2)
	assert.Equal(t, 1, th.Segments[0].Order)
	assert.Equal(t, 2, th.Segments[1].Order)
	assert.NotEqual(t, th.Segments[0].ID, th.Segments[1].ID)

	// newest first
	other := f.publish(t, "Second", "x")
	assert.Equal(t, other, f.store.Snapshot().Threads[0].ID)
}

func TestThreadService_CreateThreadPreconditions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.threads.CreateThread(context.Background(), CreateThreadInput{Title: "t", Segments: []string{"s"}})
	assertCode(t, err, models.CodeNotAuthenticated)

	f.signUp(t, "owl")
	tests := []struct {
		name string
		in   CreateThreadInput
	}{
		{"blank title", CreateThreadInput{Title: "  ", Segments: []string{"s"}}},
		{"no segments", CreateThreadInput{Title: "t"}},
		{"blank segment", CreateThreadInput{Title: "t", Segments: []string{"s", " "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.threads.CreateThread(context.Background(), tt.in)
			assertValidationError(t, err)
		})
	}
	assert.Empty(t, f.store.Snapshot().Threads)
}

func TestThreadService_ReactionScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	u := f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.")
	segID := f.thread(t, id).Segments[0].ID

	_, err := f.threads.ReactToSegment(context.Background(), id, segID, "🔥")
	require.NoError(t, err)
	seg, err := f.threads.ReactToSegment(context.Background(), id, segID, "💡")
	require.NoError(t, err)

	assert.Equal(t, models.Reactions{models.ReactionInsight: {u.ID}}, seg.Reactions)
	assert.Equal(t, seg.Reactions, f.thread(t, id).Segments[0].Reactions)
}

func TestThreadService_ReactPreconditions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.")
	segID := f.thread(t, id).Segments[0].ID

	_, err := f.threads.ReactToSegment(context.Background(), id, segID, "👍")
	assertValidationError(t, err)

	_, err = f.threads.ReactToSegment(context.Background(), "missing", segID, "🔥")
	assertCode(t, err, models.CodeNotFound)

	_, err = f.threads.ReactToSegment(context.Background(), id, "missing", "🔥")
	assertCode(t, err, models.CodeNotFound)

	require.NoError(t, f.auth.Logout(context.Background()))
	_, err = f.threads.ReactToSegment(context.Background(), id, segID, "🔥")
	assertCode(t, err, models.CodeNotAuthenticated)
}

func TestThreadService_BookmarkIsInvolution(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	u := f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.")

	on, err := f.threads.BookmarkThread(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{u.ID}, f.thread(t, id).Bookmarks)

	off, err := f.threads.BookmarkThread(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, off)
	assert.Empty(t, f.thread(t, id).Bookmarks)
}

func TestThreadService_ForkIsAtomic(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "author")
	origID := f.publish(t, "On patience", "Wait.", "Then wait more.")
	segID := f.thread(t, origID).Segments[0].ID
	_, err := f.threads.ReactToSegment(context.Background(), origID, segID, "🫶")
	require.NoError(t, err)
	_, err = f.threads.BookmarkThread(context.Background(), origID)
	require.NoError(t, err)
	require.NoError(t, f.threads.IncrementViews(context.Background(), origID))

	require.NoError(t, f.auth.Logout(context.Background()))
	forker := f.signUp(t, "forker")

	var commits []state.Commit
	f.store.Subscribe(func(_ context.Context, c state.Commit) { commits = append(commits, c) })

	forkID, err := f.threads.ForkThread(context.Background(), origID)
	require.NoError(t, err)

	require.Len(t, commits, 1, "fork must land in a single commit")
	next := commits[0].Next
	fork, ok := next.Thread(forkID)
	require.True(t, ok)
	orig, ok := next.Thread(origID)
	require.True(t, ok)

	parent, isFork := fork.Lineage.OriginalID()
	assert.True(t, isFork)
	assert.Equal(t, origID, parent)
	assert.True(t, fork.IsDraft)
	assert.Empty(t, fork.Bookmarks)
	assert.Empty(t, fork.Forks)
	assert.Zero(t, fork.Views)
	assert.Equal(t, "On patience (Fork)", fork.Title)
	assert.Equal(t, forker.ID, fork.AuthorID)
	assert.Equal(t, "forker", fork.AuthorName)
	require.Len(t, fork.Segments, 2)
	for i, seg := range fork.Segments {
		assert.NotEqual(t, orig.Segments[i].ID, seg.ID)
		assert.Equal(t, orig.Segments[i].Content, seg.Content)
		assert.Empty(t, seg.Reactions)
	}

	assert.Equal(t, []string{forkID}, orig.Forks)
	assert.Equal(t, 1, orig.Segments[0].Reactions.Count(), "original reactions untouched")
	assert.Equal(t, 1, orig.Views)
}

func TestThreadService_ForkPreconditions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.threads.ForkThread(context.Background(), "any")
	assertCode(t, err, models.CodeNotAuthenticated)

	f.signUp(t, "owl")
	_, err = f.threads.ForkThread(context.Background(), "missing")
	assertCode(t, err, models.CodeNotFound)
	assert.Empty(t, f.store.Snapshot().Threads)
}

func TestThreadService_UpdateRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.", "Then wait more.")
	before := f.thread(t, id)
	_, err := f.threads.ReactToSegment(context.Background(), id, before.Segments[0].ID, "😌")
	require.NoError(t, err)
	before = f.thread(t, id)

	title := "On waiting"
	updated, err := f.threads.UpdateThread(context.Background(), id, ThreadPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "On waiting", updated.Title)
	assert.True(t, updated.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, updated.CreatedAt)
	assert.Equal(t, before.Segments, updated.Segments)
	assert.Equal(t, before.Tags, updated.Tags)
	assert.Equal(t, before.IsDraft, updated.IsDraft)
	assert.Equal(t, before.Views, updated.Views)
	assert.Equal(t, updated, f.thread(t, id))
}

func TestThreadService_UpdateSegmentsKeepsReactionsOfKeptSegments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.", "Then wait more.")
	th := f.thread(t, id)
	kept := th.Segments[1]
	_, err := f.threads.ReactToSegment(context.Background(), id, kept.ID, "🔥")
	require.NoError(t, err)

	updated, err := f.threads.UpdateThread(context.Background(), id, ThreadPatch{
		Segments: []SegmentInput{
			{ID: kept.ID, Content: "Then wait more, gently."},
			{Content: "And breathe."},
		},
		Tags: []string{},
	})
	require.NoError(t, err)

	require.Len(t, updated.Segments, 2)
	assert.Equal(t, kept.ID, updated.Segments[0].ID)
	assert.Equal(t, 1, updated.Segments[0].Order)
	assert.Equal(t, 1, updated.Segments[0].Reactions.Count())
	assert.NotEmpty(t, updated.Segments[1].ID)
	assert.Empty(t, updated.Segments[1].Reactions)
	assert.Empty(t, updated.Tags)
}

func TestThreadService_UpdateSegmentsRepeatedIDGetsFreshSegment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.")
	kept := f.thread(t, id).Segments[0]
	_, err := f.threads.ReactToSegment(context.Background(), id, kept.ID, "🔥")
	require.NoError(t, err)

	updated, err := f.threads.UpdateThread(context.Background(), id, ThreadPatch{
		Segments: []SegmentInput{
			{ID: kept.ID, Content: "Wait."},
			{ID: kept.ID, Content: "Wait again."},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Segments, 2)
	assert.Equal(t, kept.ID, updated.Segments[0].ID)
	assert.Equal(t, 1, updated.Segments[0].Reactions.Count())
	assert.NotEqual(t, kept.ID, updated.Segments[1].ID)
	assert.NotEmpty(t, updated.Segments[1].ID)
	assert.Empty(t, updated.Segments[1].Reactions)
	assert.Equal(t, 2, updated.Segments[1].Order)
}

func TestThreadService_UpdateOwnership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "On patience", "Wait.")
	require.NoError(t, f.auth.Logout(context.Background()))
	f.signUp(t, "hawk")

	title := "Mine now"
	_, err := f.threads.UpdateThread(context.Background(), id, ThreadPatch{Title: &title})
	assertCode(t, err, models.CodeForbidden)

	_, err = f.threads.UpdateThread(context.Background(), "missing", ThreadPatch{Title: &title})
	assertCode(t, err, models.CodeNotFound)

	assert.Equal(t, "On patience", f.thread(t, id).Title)
}

func TestThreadService_PublishThread(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id, err := f.threads.CreateThread(context.Background(), CreateThreadInput{
		Title: "Draft", Segments: []string{"s"}, IsDraft: true,
	})
	require.NoError(t, err)

	th, err := f.threads.PublishThread(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, th.IsDraft)
}

func TestThreadService_DraftsHiddenFromOthers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id, err := f.threads.CreateThread(context.Background(), CreateThreadInput{
		Title: "Draft", Segments: []string{"s"}, IsDraft: true,
	})
	require.NoError(t, err)
	_, err = f.threads.Get(id)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(context.Background()))
	f.signUp(t, "hawk")
	_, err = f.threads.Get(id)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.threads.ForkThread(context.Background(), id)
	assertCode(t, err, models.CodeNotFound)
}

func TestThreadService_GetAsHidesDraftsFromOtherViewers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owl := f.signUp(t, "owl")
	id, err := f.threads.CreateThread(context.Background(), CreateThreadInput{
		Title: "Draft", Segments: []string{"s"}, IsDraft: true,
	})
	require.NoError(t, err)

	_, err = f.threads.GetAs(owl.ID, id)
	require.NoError(t, err)
	_, err = f.threads.GetAs("", id)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.threads.GetAs("someone-else", id)
	assertCode(t, err, models.CodeNotFound)

	assertCode(t, f.threads.IncrementViewsAs(context.Background(), "", id), models.CodeNotFound)
	require.NoError(t, f.threads.IncrementViewsAs(context.Background(), owl.ID, id))
	assert.Equal(t, 1, f.thread(t, id).Views)
}

func TestThreadService_DeleteThreadDropsCollectionReferences(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	keep := f.publish(t, "Keep", "k")
	drop := f.publish(t, "Drop", "d")

	cid, err := f.collections.CreateCollection(context.Background(), "Reads")
	require.NoError(t, err)
	require.NoError(t, f.collections.AddThreadToCollection(context.Background(), cid, keep))
	require.NoError(t, f.collections.AddThreadToCollection(context.Background(), cid, drop))

	var commits int
	f.store.Subscribe(func(context.Context, state.Commit) { commits++ })

	require.NoError(t, f.threads.DeleteThread(context.Background(), drop))
	assert.Equal(t, 1, commits)

	snap := f.store.Snapshot()
	_, ok := snap.Thread(drop)
	assert.False(t, ok)
	c, _ := snap.Collection(cid)
	assert.Equal(t, []string{keep}, c.ThreadIDs)

	err = f.threads.DeleteThread(context.Background(), drop)
	assertCode(t, err, models.CodeNotFound)
}

func TestThreadService_DeleteForkDropsItFromOriginal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	origID := f.publish(t, "On patience", "Wait.")
	keptID, err := f.threads.ForkThread(context.Background(), origID)
	require.NoError(t, err)
	droppedID, err := f.threads.ForkThread(context.Background(), origID)
	require.NoError(t, err)
	require.Equal(t, []string{keptID, droppedID}, f.thread(t, origID).Forks)

	var commits int
	f.store.Subscribe(func(context.Context, state.Commit) { commits++ })

	require.NoError(t, f.threads.DeleteThread(context.Background(), droppedID))
	assert.Equal(t, 1, commits)
	assert.Equal(t, []string{keptID}, f.thread(t, origID).Forks)

	require.NoError(t, f.threads.DeleteThread(context.Background(), keptID))
	assert.Empty(t, f.thread(t, origID).Forks)
}

func TestThreadService_ConcurrentViews(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "Popular", "p")

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.threads.IncrementViews(context.Background(), id))
		}()
	}
	wg.Wait()

	assert.Equal(t, n, f.thread(t, id).Views)
	assertCode(t, f.threads.IncrementViews(context.Background(), "missing"), models.CodeNotFound)
}

func TestThreadService_ConcurrentBookmarksSerialize(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signUp(t, "owl")
	id := f.publish(t, "Popular", "p")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.threads.BookmarkThread(context.Background(), id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Empty(t, f.thread(t, id).Bookmarks, "an even number of toggles ends unbookmarked")
}

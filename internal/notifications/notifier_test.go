package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"threadspire/internal/models"
	"threadspire/internal/state"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.Publish(context.Background(), Event{ID: "x"}))
	assert.NoError(t, n.Subscribe(context.Background(), func(Event) {}))
	n.Listener()(context.Background(), state.Commit{Changed: state.ChangedThreads})
	assert.Empty(t, n.queue)
}

func TestEventFromCommit(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	c := state.Commit{
		Transitions: []state.Transition{
			state.Batch{
				state.AddThread{Thread: models.Thread{ID: "fork"}},
				state.UpdateThread{Thread: models.Thread{ID: "orig"}},
			},
			state.BookmarkThread{ThreadID: "orig", UserID: "u1"},
			state.DeleteCollection{CollectionID: "c1"},
		},
		Changed: state.ChangedThreads | state.ChangedCollections,
		Next:    state.State{Threads: make([]models.Thread, 2)},
	}

	ev := EventFromCommit(c, at)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, []state.Kind{state.KindAddThread, state.KindUpdateThread, state.KindBookmarkThread, state.KindDeleteCollection}, ev.Kinds)
	assert.Equal(t, []string{"threads", "collections"}, ev.Changed)
	assert.Equal(t, []string{"fork", "orig"}, ev.ThreadIDs)
	assert.Equal(t, []string{"c1"}, ev.CollectionIDs)
	assert.Equal(t, 2, ev.Threads)
	assert.Equal(t, at.UTC(), ev.At)
}

func TestNotifier_PublishesCommits(t *testing.T) {
	t.Parallel()
	_, rdb := newRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Event
	require.NoError(t, n.Subscribe(ctx, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	}))
	go n.Run(ctx)

	store := state.NewStore(state.State{})
	t.Cleanup(store.Close)
	unsubscribe := store.Subscribe(n.Listener())
	defer unsubscribe()

	_, err := store.Dispatch(ctx, state.AddThread{Thread: models.Thread{ID: "t1"}})
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, state.SetLoading{Loading: true})
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, state.IncrementViews{ThreadID: "t1"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []state.Kind{state.KindAddThread}, got[0].Kinds)
	assert.Equal(t, []state.Kind{state.KindIncrementViews}, got[1].Kinds)
	assert.Equal(t, []string{"t1"}, got[1].ThreadIDs)
}

func TestNotifier_SubscribeSkipsMalformedAndRecoversPanics(t *testing.T) {
	t.Parallel()
	mr, rdb := newRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids := make(chan string, 4)
	require.NoError(t, n.Subscribe(ctx, func(ev Event) {
		ids <- ev.ID
		if ev.ID == "boom" {
			panic("listener failure")
		}
	}))

	mr.Publish(Channel, "{not json")
	for _, id := range []string{"boom", "after"} {
		payload, err := json.Marshal(Event{ID: id})
		require.NoError(t, err)
		mr.Publish(Channel, string(payload))
	}

	for _, want := range []string{"boom", "after"} {
		select {
		case id := <-ids:
			assert.Equal(t, want, id)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestNotifier_ListenerDropsWhenQueueFull(t *testing.T) {
	t.Parallel()
	_, rdb := newRedis(t)
	n := NewNotifier(rdb)
	n.queue = make(chan Event, 1)

	l := n.Listener()
	commit := state.Commit{Changed: state.ChangedThreads}
	l(context.Background(), commit)
	l(context.Background(), commit)
	assert.Len(t, n.queue, 1)
}

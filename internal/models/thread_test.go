package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleThread() Thread {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Thread{
		ID:         "t1",
		Title:      "On patience",
		AuthorID:   "u1",
		AuthorName: "ada",
		Segments: []Segment{
			{ID: "s1", Content: "Wait.", Order: 1, Reactions: Reactions{ReactionCalm: {"u2"}}},
		},
		Tags:      []string{"life"},
		CreatedAt: now,
		UpdatedAt: now,
		Bookmarks: []string{"u2"},
		Forks:     []string{},
		Views:     3,
	}
}

func TestThreadJSON_OriginalOmitsOriginalThreadID(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(sampleThread())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "originalThreadId")
	assert.Equal(t, "u1", raw["authorId"])
	assert.Equal(t, false, raw["isDraft"])
}

func TestThreadJSON_ForkRoundTrip(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	th.Lineage = ForkOf("t0")

	data, err := json.Marshal(th)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"originalThreadId":"t0"`)

	var back Thread
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, th, back)

	id, ok := back.Lineage.OriginalID()
	assert.True(t, ok)
	assert.Equal(t, "t0", id)
}

func TestThread_CloneIsDeep(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	cp := th.Clone()
	cp.Segments[0].Content = "changed"
	cp.Segments[0].Reactions[ReactionCalm][0] = "x"
	cp.Tags[0] = "other"
	cp.Bookmarks[0] = "x"

	assert.Equal(t, "Wait.", th.Segments[0].Content)
	assert.Equal(t, "u2", th.Segments[0].Reactions[ReactionCalm][0])
	assert.Equal(t, "life", th.Tags[0])
	assert.Equal(t, "u2", th.Bookmarks[0])
}

func TestThread_Helpers(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	assert.Equal(t, 0, th.SegmentIndex("s1"))
	assert.Equal(t, -1, th.SegmentIndex("missing"))
	assert.True(t, th.IsBookmarkedBy("u2"))
	assert.False(t, th.IsBookmarkedBy("u1"))
	assert.True(t, th.HasTag("life"))
	assert.Equal(t, 1, th.ReactionCount())
	assert.False(t, th.Lineage.IsFork())
}

func TestCollection_Without(t *testing.T) {
	t.Parallel()

	c := Collection{ID: "c1", ThreadIDs: []string{"a", "b"}}
	out := c.Without("a")

	assert.Equal(t, []string{"b"}, out.ThreadIDs)
	assert.Equal(t, []string{"a", "b"}, c.ThreadIDs)
	assert.True(t, c.Contains("a"))
	assert.False(t, out.Contains("a"))
}

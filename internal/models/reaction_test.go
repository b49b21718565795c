package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReactionKind(t *testing.T) {
	t.Parallel()

	for _, k := range ReactionKinds {
		got, err := ParseReactionKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseReactionKind("👍")
	assert.True(t, HasCode(err, CodeValidation))

	got, err := ParseReactionKind(" 🔥 ")
	require.NoError(t, err)
	assert.Equal(t, ReactionFire, got)
}

func TestReactions_WithKeepsOneReactionPerUser(t *testing.T) {
	t.Parallel()

	r := Reactions{}
	r = r.With("u1", ReactionFire)
	r = r.With("u2", ReactionFire)
	r = r.With("u1", ReactionInsight)

	assert.Equal(t, Reactions{
		ReactionFire:    {"u2"},
		ReactionInsight: {"u1"},
	}, r)

	kind, ok := r.KindOf("u1")
	require.True(t, ok)
	assert.Equal(t, ReactionInsight, kind)
	assert.Equal(t, 2, r.Count())
}

func TestReactions_WithDropsEmptyBuckets(t *testing.T) {
	t.Parallel()

	r := Reactions{}.With("u1", ReactionFire).With("u1", ReactionInsight)
	assert.Equal(t, Reactions{ReactionInsight: {"u1"}}, r)
}

func TestReactions_WithDoesNotModifyReceiver(t *testing.T) {
	t.Parallel()

	orig := Reactions{ReactionFire: {"u1", "u2"}}
	_ = orig.With("u1", ReactionCalm)

	assert.Equal(t, Reactions{ReactionFire: {"u1", "u2"}}, orig)
}

func TestReactions_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := Reactions{ReactionHeart: {"a"}}
	cp := orig.Clone()
	cp[ReactionHeart][0] = "b"

	assert.Equal(t, "a", orig[ReactionHeart][0])
}

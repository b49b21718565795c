package models

import "strings"

// ReactionKind is one of the fixed reaction emoji a reader can leave on a segment.
type ReactionKind string

const (
	ReactionMindBlown ReactionKind = "🤯"
	ReactionInsight   ReactionKind = "💡"
	ReactionCalm      ReactionKind = "😌"
	ReactionFire      ReactionKind = "🔥"
	ReactionHeart     ReactionKind = "🫶"
)

// ReactionKinds lists the accepted reactions in display order.
var ReactionKinds = []ReactionKind{
	ReactionMindBlown,
	ReactionInsight,
	ReactionCalm,
	ReactionFire,
	ReactionHeart,
}

// ParseReactionKind validates a raw emoji coming from outside the process.
func ParseReactionKind(raw string) (ReactionKind, error) {
	raw = strings.TrimSpace(raw)
	for _, k := range ReactionKinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", NewValidationError("Unsupported reaction")
}

// Reactions maps a reaction kind to the ids of the users who chose it.
type Reactions map[ReactionKind][]string

// Clone returns a deep copy.
func (r Reactions) Clone() Reactions {
	out := make(Reactions, len(r))
	for k, ids := range r {
		out[k] = append([]string(nil), ids...)
	}
	return out
}

// With returns a copy where userID holds exactly one reaction, kind.
// The user is removed from every other bucket first and buckets left empty
// are dropped. The receiver is not modified.
func (r Reactions) With(userID string, kind ReactionKind) Reactions {
	out := make(Reactions, len(r)+1)
	for k, ids := range r {
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != userID {
				kept = append(kept, id)
			}
		}
		if len(kept) > 0 {
			out[k] = kept
		}
	}
	out[kind] = append(out[kind], userID)
	return out
}

// KindOf returns the reaction userID currently holds, if any.
func (r Reactions) KindOf(userID string) (ReactionKind, bool) {
	for k, ids := range r {
		for _, id := range ids {
			if id == userID {
				return k, true
			}
		}
	}
	return "", false
}

// Count returns the total number of reactions across all buckets.
func (r Reactions) Count() int {
	n := 0
	for _, ids := range r {
		n += len(ids)
	}
	return n
}

package models

import (
	"encoding/json"
	"time"
)

// ForkTitleSuffix is appended to the title of a forked thread.
const ForkTitleSuffix = " (Fork)"

// Segment is one unit of thread content together with its reaction tally.
type Segment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Order     int       `json:"order"`
	Reactions Reactions `json:"reactions"`
}

// Clone returns a deep copy of the segment.
func (s Segment) Clone() Segment {
	s.Reactions = s.Reactions.Clone()
	return s
}

// Lineage records whether a thread was written from scratch or forked from another.
// The zero value is an original thread.
type Lineage struct {
	originalID string
}

// Original is the lineage of a thread that is not a fork.
func Original() Lineage { return Lineage{} }

// ForkOf is the lineage of a thread forked from originalID.
func ForkOf(originalID string) Lineage { return Lineage{originalID: originalID} }

// IsFork reports whether the thread was forked.
func (l Lineage) IsFork() bool { return l.originalID != "" }

// OriginalID returns the id of the thread this one was forked from.
func (l Lineage) OriginalID() (string, bool) {
	return l.originalID, l.originalID != ""
}

// Thread is a titled, author-owned sequence of segments, draft or published.
type Thread struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Segments   []Segment `json:"segments"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsDraft    bool      `json:"isDraft"`
	Bookmarks  []string  `json:"bookmarks"`
	Forks      []string  `json:"forks"`
	Lineage    Lineage   `json:"-"`
	Views      int       `json:"views"`
}

type threadJSON struct {
	threadAlias
	OriginalThreadID string `json:"originalThreadId,omitempty"`
}

type threadAlias Thread

// MarshalJSON persists the lineage as the optional originalThreadId field.
func (t Thread) MarshalJSON() ([]byte, error) {
	return json.Marshal(threadJSON{
		threadAlias:      threadAlias(t),
		OriginalThreadID: t.Lineage.originalID,
	})
}

// UnmarshalJSON restores the lineage from originalThreadId.
func (t *Thread) UnmarshalJSON(data []byte) error {
	var raw threadJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Thread(raw.threadAlias)
	t.Lineage = ForkOf(raw.OriginalThreadID)
	return nil
}

// Clone returns a deep copy of the thread.
func (t Thread) Clone() Thread {
	out := t
	out.Segments = make([]Segment, len(t.Segments))
	for i, s := range t.Segments {
		out.Segments[i] = s.Clone()
	}
	out.Tags = append([]string(nil), t.Tags...)
	out.Bookmarks = append([]string(nil), t.Bookmarks...)
	out.Forks = append([]string(nil), t.Forks...)
	return out
}

// SegmentIndex returns the position of the segment with the given id, or -1.
func (t Thread) SegmentIndex(segmentID string) int {
	for i, s := range t.Segments {
		if s.ID == segmentID {
			return i
		}
	}
	return -1
}

// IsBookmarkedBy reports whether userID bookmarked the thread.
func (t Thread) IsBookmarkedBy(userID string) bool {
	for _, id := range t.Bookmarks {
		if id == userID {
			return true
		}
	}
	return false
}

// HasTag reports whether the thread carries tag.
func (t Thread) HasTag(tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

// ReactionCount sums reactions across all segments.
func (t Thread) ReactionCount() int {
	n := 0
	for _, s := range t.Segments {
		n += s.Reactions.Count()
	}
	return n
}

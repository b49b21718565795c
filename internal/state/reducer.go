package state

import "threadspire/internal/models"

// Reduce applies t to s and returns the resulting state. Transitions whose
// target id does not resolve return s unchanged.
func Reduce(s State, t Transition) State {
	if t == nil {
		return s
	}
	return t.apply(s)
}

func (t SetUser) apply(s State) State {
	s.User = t.User
	s.IsAuthenticated = t.User != nil
	return s
}

func (t SetThreads) apply(s State) State {
	s.Threads = t.Threads
	return s
}

func (t SetCollections) apply(s State) State {
	s.Collections = t.Collections
	return s
}

func (t SetLoading) apply(s State) State {
	s.Loading = t.Loading
	return s
}

func (t AddThread) apply(s State) State {
	threads := make([]models.Thread, 0, len(s.Threads)+1)
	threads = append(threads, t.Thread)
	s.Threads = append(threads, s.Threads...)
	return s
}

func (t UpdateThread) apply(s State) State {
	i := threadIndex(s.Threads, t.Thread.ID)
	if i < 0 {
		return s
	}
	s.Threads = replaceAt(s.Threads, i, t.Thread)
	return s
}

func (t DeleteThread) apply(s State) State {
	i := threadIndex(s.Threads, t.ThreadID)
	if i < 0 {
		return s
	}
	s.Threads = removeAt(s.Threads, i)
	return s
}

func (t AddCollection) apply(s State) State {
	collections := make([]models.Collection, 0, len(s.Collections)+1)
	collections = append(collections, s.Collections...)
	s.Collections = append(collections, t.Collection)
	return s
}

func (t UpdateCollection) apply(s State) State {
	i := collectionIndex(s.Collections, t.Collection.ID)
	if i < 0 {
		return s
	}
	s.Collections = replaceAt(s.Collections, i, t.Collection)
	return s
}

func (t DeleteCollection) apply(s State) State {
	i := collectionIndex(s.Collections, t.CollectionID)
	if i < 0 {
		return s
	}
	s.Collections = removeAt(s.Collections, i)
	return s
}

func (t ReactToSegment) apply(s State) State {
	i := threadIndex(s.Threads, t.ThreadID)
	if i < 0 {
		return s
	}
	th := s.Threads[i]
	j := th.SegmentIndex(t.SegmentID)
	if j < 0 {
		return s
	}
	seg := th.Segments[j]
	seg.Reactions = seg.Reactions.With(t.UserID, t.Reaction)
	th.Segments = replaceAt(th.Segments, j, seg)
	s.Threads = replaceAt(s.Threads, i, th)
	return s
}

func (t BookmarkThread) apply(s State) State {
	i := threadIndex(s.Threads, t.ThreadID)
	if i < 0 {
		return s
	}
	th := s.Threads[i]
	if th.IsBookmarkedBy(t.UserID) {
		kept := make([]string, 0, len(th.Bookmarks))
		for _, id := range th.Bookmarks {
			if id != t.UserID {
				kept = append(kept, id)
			}
		}
		th.Bookmarks = kept
	} else {
		bookmarks := make([]string, 0, len(th.Bookmarks)+1)
		bookmarks = append(bookmarks, th.Bookmarks...)
		th.Bookmarks = append(bookmarks, t.UserID)
	}
	s.Threads = replaceAt(s.Threads, i, th)
	return s
}

func (t IncrementViews) apply(s State) State {
	i := threadIndex(s.Threads, t.ThreadID)
	if i < 0 {
		return s
	}
	th := s.Threads[i]
	th.Views++
	s.Threads = replaceAt(s.Threads, i, th)
	return s
}

func (b Batch) apply(s State) State {
	for _, t := range b {
		s = Reduce(s, t)
	}
	return s
}

func replaceAt[T any](in []T, i int, v T) []T {
	out := make([]T, len(in))
	copy(out, in)
	out[i] = v
	return out
}

func removeAt[T any](in []T, i int) []T {
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}

package service

import (
	"context"
	"log/slog"
	"strings"

	"threadspire/internal/models"
	"threadspire/internal/observability"
	"threadspire/internal/state"
	"threadspire/internal/validation"
)

// ThreadService implements the thread actions.
type ThreadService struct {
	base
}

// CreateThreadInput is the author-supplied part of a new thread.
type CreateThreadInput struct {
	Title    string
	Segments []string
	Tags     []string
	IsDraft  bool
}

// SegmentInput is one segment of an edited thread. A blank ID, or one that
// does not match an existing segment, creates a new segment.
type SegmentInput struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

// ThreadPatch holds the fields UpdateThread may change. Nil fields are left
// untouched; an empty non-nil Tags clears the tags.
type ThreadPatch struct {
	Title    *string        `json:"title,omitempty"`
	Segments []SegmentInput `json:"segments,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	IsDraft  *bool          `json:"isDraft,omitempty"`
}

func NewThreadService(store *state.Store, opts ...Option) *ThreadService {
	return &ThreadService{base: newBase(store, opts)}
}

// Get returns a thread as the current user may see it.
func (s *ThreadService) Get(threadID string) (models.Thread, error) {
	cur := s.store.Snapshot()
	return visibleThread(cur, cur.UserID(), threadID)
}

// GetAs returns a thread as viewerID may see it. An empty viewerID reads
// anonymously.
func (s *ThreadService) GetAs(viewerID, threadID string) (models.Thread, error) {
	return visibleThread(s.store.Snapshot(), viewerID, threadID)
}

// CreateThread stores a new thread authored by the current user and returns its id.
func (s *ThreadService) CreateThread(ctx context.Context, in CreateThreadInput) (id string, err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadService.CreateThread")
	defer func() { span.End(err) }()

	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateThreadTitle(title); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidateSegments(in.Segments); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		user, err := requireUser(cur)
		if err != nil {
			return nil, err
		}

		now := s.now()
		th := models.Thread{
			ID:         s.newID(),
			Title:      title,
			AuthorID:   user.ID,
			AuthorName: user.Username,
			Segments:   make([]models.Segment, 0, len(in.Segments)),
			Tags:       tags,
			CreatedAt:  now,
			UpdatedAt:  now,
			IsDraft:    in.IsDraft,
			Bookmarks:  []string{},
			Forks:      []string{},
			Lineage:    models.Original(),
		}
		for i, content := range in.Segments {
			th.Segments = append(th.Segments, models.Segment{
				ID:        s.newID(),
				Content:   content,
				Order:     i + 1,
				Reactions: models.Reactions{},
			})
		}
		id = th.ID
		return []state.Transition{state.AddThread{Thread: th}}, nil
	})
	if err != nil {
		return "", err
	}

	observability.LogServiceCall(ctx, "thread", "CreateThread",
		slog.String("thread_id", id),
		slog.Bool("draft", in.IsDraft),
	)
	return id, nil
}

// UpdateThread merges patch over the author's own thread and advances UpdatedAt.
func (s *ThreadService) UpdateThread(ctx context.Context, threadID string, patch ThreadPatch) (updated models.Thread, err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadService.UpdateThread")
	defer func() { span.End(err) }()

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if err := validation.ValidateThreadTitle(t); err != nil {
			return models.Thread{}, models.NewValidationError(err.Error())
		}
		patch.Title = &t
	}
	if patch.Segments != nil {
		contents := make([]string, len(patch.Segments))
		for i, seg := range patch.Segments {
			contents[i] = seg.Content
		}
		if err := validation.ValidateSegments(contents); err != nil {
			return models.Thread{}, models.NewValidationError(err.Error())
		}
	}
	if patch.Tags != nil {
		tags, err := validation.NormalizeTags(patch.Tags)
		if err != nil {
			return models.Thread{}, models.NewValidationError(err.Error())
		}
		patch.Tags = tags
	}

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		th, err := s.ownThread(cur, threadID)
		if err != nil {
			return nil, err
		}
		updated = s.merge(th, patch)
		return []state.Transition{state.UpdateThread{Thread: updated}}, nil
	})
	if err != nil {
		return models.Thread{}, err
	}

	observability.LogServiceCall(ctx, "thread", "UpdateThread", slog.String("thread_id", threadID))
	return updated, nil
}

// PublishThread clears the draft flag.
func (s *ThreadService) PublishThread(ctx context.Context, threadID string) (models.Thread, error) {
	published := false
	return s.UpdateThread(ctx, threadID, ThreadPatch{IsDraft: &published})
}

// DeleteThread removes the author's own thread, drops it from every
// collection and, for a fork, from its original's fork list.
func (s *ThreadService) DeleteThread(ctx context.Context, threadID string) (err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadService.DeleteThread")
	defer func() { span.End(err) }()

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		th, err := s.ownThread(cur, threadID)
		if err != nil {
			return nil, err
		}
		batch := state.Batch{state.DeleteThread{ThreadID: threadID}}
		if origID, ok := th.Lineage.OriginalID(); ok {
			if orig, found := cur.Thread(origID); found {
				orig.Forks = withoutID(orig.Forks, threadID)
				batch = append(batch, state.UpdateThread{Thread: orig})
			}
		}
		for _, c := range cur.Collections {
			if c.Contains(threadID) {
				batch = append(batch, state.UpdateCollection{Collection: c.Without(threadID)})
			}
		}
		return []state.Transition{batch}, nil
	})
	if err != nil {
		return err
	}

	observability.LogServiceCall(ctx, "thread", "DeleteThread", slog.String("thread_id", threadID))
	return nil
}

// ReactToSegment sets the current user's reaction on a segment, replacing
// any earlier reaction of theirs.
func (s *ThreadService) ReactToSegment(ctx context.Context, threadID, segmentID, reaction string) (seg models.Segment, err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadService.ReactToSegment")
	defer func() { span.End(err) }()

	kind, err := models.ParseReactionKind(reaction)
	if err != nil {
		return models.Segment{}, err
	}

	next, err := s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		user, err := requireUser(cur)
		if err != nil {
			return nil, err
		}
		th, err := visibleThread(cur, cur.UserID(), threadID)
		if err != nil {
			return nil, err
		}
		if th.SegmentIndex(segmentID) < 0 {
			return nil, models.NewNotFoundError("Segment", segmentID)
		}
		return []state.Transition{state.ReactToSegment{
			ThreadID:  threadID,
			SegmentID: segmentID,
			Reaction:  kind,
			UserID:    user.ID,
		}}, nil
	})
	if err != nil {
		return models.Segment{}, err
	}

	th, _ := next.Thread(threadID)
	if i := th.SegmentIndex(segmentID); i >= 0 {
		seg = th.Segments[i]
	}
	observability.LogServiceCall(ctx, "thread", "ReactToSegment",
		slog.String("thread_id", threadID),
		slog.String("segment_id", segmentID),
		slog.String("reaction", string(kind)),
	)
	return seg, nil
}

// BookmarkThread toggles the current user's bookmark and reports the new state.
func (s *ThreadService) BookmarkThread(ctx context.Context, threadID string) (bookmarked bool, err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadService.BookmarkThread")
	defer func() { span.End(err) }()

	next, err := s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		user, err := requireUser(cur)
		if err != nil {
			return nil, err
		}
		if _, err := visibleThread(cur, cur.UserID(), threadID); err != nil {
			return nil, err
		}
		return []state.Transition{state.BookmarkThread{ThreadID: threadID, UserID: user.ID}}, nil
	})
	if err != nil {
		return false, err
	}

	th, _ := next.Thread(threadID)
	bookmarked = th.IsBookmarkedBy(next.UserID())
	observability.LogServiceCall(ctx, "thread", "BookmarkThread",
		slog.String("thread_id", threadID),
		slog.Bool("bookmarked", bookmarked),
	)
	return bookmarked, nil
}

// ForkThread copies a thread into a new draft owned by the current user and
// records the fork on the original, both in one commit.
func (s *ThreadService) ForkThread(ctx context.Context, originalID string) (id string, err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadService.ForkThread")
	defer func() { span.End(err) }()

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		user, err := requireUser(cur)
		if err != nil {
			return nil, err
		}
		original, err := visibleThread(cur, cur.UserID(), originalID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		fork := original.Clone()
		fork.ID = s.newID()
		fork.Title = original.Title + models.ForkTitleSuffix
		fork.AuthorID = user.ID
		fork.AuthorName = user.Username
		fork.Lineage = models.ForkOf(original.ID)
		fork.IsDraft = true
		fork.CreatedAt = now
		fork.UpdatedAt = now
		fork.Bookmarks = []string{}
		fork.Forks = []string{}
		fork.Views = 0
		for i := range fork.Segments {
			fork.Segments[i].ID = s.newID()
			fork.Segments[i].Reactions = models.Reactions{}
		}

		forks := make([]string, 0, len(original.Forks)+1)
		forks = append(forks, original.Forks...)
		original.Forks = append(forks, fork.ID)

		id = fork.ID
		return []state.Transition{state.Batch{
			state.AddThread{Thread: fork},
			state.UpdateThread{Thread: original},
		}}, nil
	})
	if err != nil {
		return "", err
	}

	observability.LogServiceCall(ctx, "thread", "ForkThread",
		slog.String("thread_id", id),
		slog.String("original_id", originalID),
	)
	return id, nil
}

// IncrementViews counts one view. Callers de-duplicate repeated views.
func (s *ThreadService) IncrementViews(ctx context.Context, threadID string) error {
	return s.incrementViews(ctx, threadID, state.State.UserID)
}

// IncrementViewsAs counts one view by viewerID, who must be able to see the
// thread.
func (s *ThreadService) IncrementViewsAs(ctx context.Context, viewerID, threadID string) error {
	return s.incrementViews(ctx, threadID, func(state.State) string { return viewerID })
}

func (s *ThreadService) incrementViews(ctx context.Context, threadID string, viewer func(state.State) string) error {
	_, err := s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		if _, err := visibleThread(cur, viewer(cur), threadID); err != nil {
			return nil, err
		}
		return []state.Transition{state.IncrementViews{ThreadID: threadID}}, nil
	})
	return err
}

func (s *ThreadService) ownThread(cur state.State, threadID string) (models.Thread, error) {
	user, err := requireUser(cur)
	if err != nil {
		return models.Thread{}, err
	}
	th, ok := cur.Thread(threadID)
	if !ok {
		return models.Thread{}, models.NewNotFoundError("Thread", threadID)
	}
	if th.AuthorID != user.ID {
		return models.Thread{}, models.NewForbiddenError("Only the author can change this thread")
	}
	return th, nil
}

func (s *ThreadService) merge(th models.Thread, patch ThreadPatch) models.Thread {
	out := th
	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.Tags != nil {
		out.Tags = patch.Tags
	}
	if patch.IsDraft != nil {
		out.IsDraft = *patch.IsDraft
	}
	if patch.Segments != nil {
		segs := make([]models.Segment, 0, len(patch.Segments))
		seen := make(map[string]bool, len(patch.Segments))
		for i, in := range patch.Segments {
			seg := models.Segment{ID: in.ID, Content: in.Content, Order: i + 1, Reactions: models.Reactions{}}
			// a repeated id keeps its reactions only on its first occurrence
			if j := th.SegmentIndex(in.ID); in.ID != "" && j >= 0 && !seen[in.ID] {
				seg.Reactions = th.Segments[j].Reactions
			} else {
				seg.ID = s.newID()
			}
			seen[seg.ID] = true
			segs = append(segs, seg)
		}
		out.Segments = segs
	}
	out.UpdatedAt = after(th.UpdatedAt, s.now())
	return out
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

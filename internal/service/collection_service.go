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

// CollectionService implements the collection actions. Every operation is
// scoped to collections owned by the current user.
type CollectionService struct {
	base
}

func NewCollectionService(store *state.Store, opts ...Option) *CollectionService {
	return &CollectionService{base: newBase(store, opts)}
}

// Get returns one of the current user's collections.
func (s *CollectionService) Get(collectionID string) (models.Collection, error) {
	return ownCollection(s.store.Snapshot(), collectionID)
}

// CreateCollection adds an empty private collection and returns its id.
func (s *CollectionService) CreateCollection(ctx context.Context, name string) (id string, err error) {
	span, ctx := observability.NewSpan(ctx, "CollectionService.CreateCollection")
	defer func() { span.End(err) }()

	name = strings.TrimSpace(name)
	if err := validation.ValidateCollectionName(name); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		user, err := requireUser(cur)
		if err != nil {
			return nil, err
		}
		c := models.Collection{
			ID:        s.newID(),
			Name:      name,
			UserID:    user.ID,
			ThreadIDs: []string{},
			CreatedAt: s.now(),
			IsPrivate: true,
		}
		id = c.ID
		return []state.Transition{state.AddCollection{Collection: c}}, nil
	})
	if err != nil {
		return "", err
	}

	observability.LogServiceCall(ctx, "collection", "CreateCollection", slog.String("collection_id", id))
	return id, nil
}

// AddThreadToCollection references threadID from the collection. Adding a
// thread that is already present changes nothing.
func (s *CollectionService) AddThreadToCollection(ctx context.Context, collectionID, threadID string) (err error) {
	span, ctx := observability.NewSpan(ctx, "CollectionService.AddThreadToCollection")
	defer func() { span.End(err) }()

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		c, err := ownCollection(cur, collectionID)
		if err != nil {
			return nil, err
		}
		if _, err := visibleThread(cur, cur.UserID(), threadID); err != nil {
			return nil, err
		}
		if c.Contains(threadID) {
			return nil, nil
		}
		ids := make([]string, 0, len(c.ThreadIDs)+1)
		ids = append(ids, c.ThreadIDs...)
		c.ThreadIDs = append(ids, threadID)
		return []state.Transition{state.UpdateCollection{Collection: c}}, nil
	})
	if err != nil {
		return err
	}

	observability.LogServiceCall(ctx, "collection", "AddThreadToCollection",
		slog.String("collection_id", collectionID),
		slog.String("thread_id", threadID),
	)
	return nil
}

// RemoveThreadFromCollection drops threadID from the collection.
func (s *CollectionService) RemoveThreadFromCollection(ctx context.Context, collectionID, threadID string) (err error) {
	span, ctx := observability.NewSpan(ctx, "CollectionService.RemoveThreadFromCollection")
	defer func() { span.End(err) }()

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		c, err := ownCollection(cur, collectionID)
		if err != nil {
			return nil, err
		}
		if !c.Contains(threadID) {
			return nil, nil
		}
		return []state.Transition{state.UpdateCollection{Collection: c.Without(threadID)}}, nil
	})
	if err != nil {
		return err
	}

	observability.LogServiceCall(ctx, "collection", "RemoveThreadFromCollection",
		slog.String("collection_id", collectionID),
		slog.String("thread_id", threadID),
	)
	return nil
}

// DeleteCollection removes one of the current user's collections.
func (s *CollectionService) DeleteCollection(ctx context.Context, collectionID string) (err error) {
	span, ctx := observability.NewSpan(ctx, "CollectionService.DeleteCollection")
	defer func() { span.End(err) }()

	_, err = s.store.Update(ctx, func(cur state.State) ([]state.Transition, error) {
		if _, err := ownCollection(cur, collectionID); err != nil {
			return nil, err
		}
		return []state.Transition{state.DeleteCollection{CollectionID: collectionID}}, nil
	})
	if err != nil {
		return err
	}

	observability.LogServiceCall(ctx, "collection", "DeleteCollection", slog.String("collection_id", collectionID))
	return nil
}

func ownCollection(cur state.State, collectionID string) (models.Collection, error) {
	user, err := requireUser(cur)
	if err != nil {
		return models.Collection{}, err
	}
	c, ok := cur.Collection(collectionID)
	if !ok {
		return models.Collection{}, models.NewNotFoundError("Collection", collectionID)
	}
	if c.UserID != user.ID {
		return models.Collection{}, models.NewForbiddenError("This collection belongs to another user")
	}
	return c, nil
}

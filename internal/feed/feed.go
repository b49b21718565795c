// Package feed derives the read-only views over a state snapshot: the
// public feed, per-user tabs, collections and analytics.
package feed

import (
	"sort"
	"strings"

	"threadspire/internal/models"
)

// Sort orders the public feed.
type Sort string

const (
	SortFeatured       Sort = "featured"
	SortNewest         Sort = "newest"
	SortMostBookmarked Sort = "mostBookmarked"
	SortMostForked     Sort = "mostForked"
)

// ParseSort validates a sort key. Empty means featured.
func ParseSort(raw string) (Sort, error) {
	switch s := Sort(strings.TrimSpace(raw)); s {
	case "":
		return SortFeatured, nil
	case SortFeatured, SortNewest, SortMostBookmarked, SortMostForked:
		return s, nil
	default:
		return "", models.NewValidationError("Invalid sort option")
	}
}

// Query filters and orders the public feed.
type Query struct {
	// Tag restricts the feed; "" or "all" disables the filter.
	Tag  string
	Sort Sort
}

// EngagementScore weighs bookmarks, forks, views and reactions for the featured sort.
func EngagementScore(t models.Thread) float64 {
	return float64(len(t.Bookmarks))*2 +
		float64(len(t.Forks))*3 +
		float64(t.Views)*0.1 +
		float64(t.ReactionCount())
}

// Published returns the non-draft threads matching q, sorted. Ties keep
// their store order.
func Published(threads []models.Thread, q Query) []models.Thread {
	out := make([]models.Thread, 0, len(threads))
	for _, t := range threads {
		if t.IsDraft {
			continue
		}
		if q.Tag != "" && q.Tag != "all" && !t.HasTag(q.Tag) {
			continue
		}
		out = append(out, t)
	}

	var less func(a, b models.Thread) bool
	switch q.Sort {
	case SortNewest:
		less = func(a, b models.Thread) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortMostBookmarked:
		less = func(a, b models.Thread) bool { return len(a.Bookmarks) > len(b.Bookmarks) }
	case SortMostForked:
		less = func(a, b models.Thread) bool { return len(a.Forks) > len(b.Forks) }
	default:
		less = func(a, b models.Thread) bool { return EngagementScore(a) > EngagementScore(b) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Tags lists the distinct tags of published threads in first-seen order.
func Tags(threads []models.Thread) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, t := range threads {
		if t.IsDraft {
			continue
		}
		for _, tag := range t.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// Drafts returns the user's unpublished threads.
func Drafts(threads []models.Thread, userID string) []models.Thread {
	return filter(threads, func(t models.Thread) bool {
		return t.IsDraft && t.AuthorID == userID
	})
}

// Bookmarked returns the published threads the user bookmarked.
func Bookmarked(threads []models.Thread, userID string) []models.Thread {
	return filter(threads, func(t models.Thread) bool {
		return !t.IsDraft && t.IsBookmarkedBy(userID)
	})
}

// CollectionThreads resolves the published threads a collection references,
// in store order. References to deleted threads are skipped.
func CollectionThreads(c models.Collection, threads []models.Thread) []models.Thread {
	return filter(threads, func(t models.Thread) bool {
		return !t.IsDraft && c.Contains(t.ID)
	})
}

// UserCollections returns the collections owned by userID.
func UserCollections(collections []models.Collection, userID string) []models.Collection {
	out := []models.Collection{}
	for _, c := range collections {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

func filter(threads []models.Thread, keep func(models.Thread) bool) []models.Thread {
	out := []models.Thread{}
	for _, t := range threads {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

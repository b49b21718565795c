package feed

import "threadspire/internal/models"

// ProfileStats are the headline numbers on a profile.
type ProfileStats struct {
	PublishedThreads  int `json:"publishedThreads"`
	TotalReactions    int `json:"totalReactions"`
	BookmarksReceived int `json:"bookmarksReceived"`
	ForksCreated      int `json:"forksCreated"`
}

// ProfileView groups a user's threads into the profile tabs.
type ProfileView struct {
	Published  []models.Thread `json:"published"`
	Drafts     []models.Thread `json:"drafts"`
	Forks      []models.Thread `json:"forks"`
	Bookmarked []models.Thread `json:"bookmarked"`
	Stats      ProfileStats    `json:"stats"`
}

// Profile builds the profile tabs for userID.
func Profile(threads []models.Thread, userID string) ProfileView {
	v := ProfileView{
		Published: filter(threads, func(t models.Thread) bool {
			return t.AuthorID == userID && !t.IsDraft
		}),
		Drafts: Drafts(threads, userID),
		Forks: filter(threads, func(t models.Thread) bool {
			return t.AuthorID == userID && t.Lineage.IsFork()
		}),
		Bookmarked: Bookmarked(threads, userID),
	}

	v.Stats.PublishedThreads = len(v.Published)
	v.Stats.ForksCreated = len(v.Forks)
	for _, t := range v.Published {
		v.Stats.TotalReactions += t.ReactionCount()
		v.Stats.BookmarksReceived += len(t.Bookmarks)
	}
	return v
}

package main

import (
	"fmt"

	"threadspire/internal/feed"
	"threadspire/internal/persistence"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the persisted threads and collections",
	RunE:  runStats,
}

// Stats is the summary printed by the stats command.
type Stats struct {
	Accounts      int            `json:"accounts"`
	SignedIn      string         `json:"signedIn,omitempty"`
	Threads       int            `json:"threads"`
	Published     int            `json:"published"`
	Drafts        int            `json:"drafts"`
	Forks         int            `json:"forks"`
	Collections   int            `json:"collections"`
	Views         int            `json:"views"`
	Reactions     int            `json:"reactions"`
	Tags          map[string]int `json:"tags"`
	TopThreads    []TopThread    `json:"topThreads"`
	ThreadsByUser map[string]int `json:"threadsByUser"`
}

// TopThread is one entry of the featured ranking.
type TopThread struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

const topN = 5

func computeStats(d persistence.Dump) Stats {
	s := Stats{
		Accounts:      len(d.RegisteredUsers),
		Threads:       len(d.Threads),
		Collections:   len(d.Collections),
		Tags:          map[string]int{},
		TopThreads:    []TopThread{},
		ThreadsByUser: map[string]int{},
	}
	if d.User != nil {
		s.SignedIn = d.User.Username
	}
	for _, t := range d.Threads {
		if t.IsDraft {
			s.Drafts++
		} else {
			s.Published++
			for _, tag := range t.Tags {
				s.Tags[tag]++
			}
		}
		if t.Lineage.IsFork() {
			s.Forks++
		}
		s.Views += t.Views
		s.Reactions += t.ReactionCount()
		s.ThreadsByUser[t.AuthorName]++
	}

	for _, t := range feed.Published(d.Threads, feed.Query{Sort: feed.SortFeatured}) {
		if len(s.TopThreads) == topN {
			break
		}
		s.TopThreads = append(s.TopThreads, TopThread{
			ID:     t.ID,
			Title:  t.Title,
			Author: t.AuthorName,
			Score:  feed.EngagementScore(t),
		})
	}
	return s
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	mirror, backend, err := openMirror(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	dump, err := mirror.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return encode(cmd.OutOrStdout(), computeStats(dump), format)
}

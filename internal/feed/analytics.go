package feed

import (
	"strings"
	"time"

	"threadspire/internal/models"
)

// Period is an analytics time window.
type Period string

const (
	PeriodMonth    Period = "1m"
	PeriodQuarter  Period = "3m"
	PeriodHalfYear Period = "6m"
	PeriodYear     Period = "1y"
	DefaultPeriod         = PeriodQuarter
)

const day = 24 * time.Hour

type window struct {
	months int
	days   int
	step   int
}

var windows = map[Period]window{
	PeriodMonth:    {months: 1, days: 30, step: 1},
	PeriodQuarter:  {months: 3, days: 90, step: 3},
	PeriodHalfYear: {months: 6, days: 180, step: 7},
	PeriodYear:     {months: 12, days: 365, step: 30},
}

// ParsePeriod validates a period key. Empty selects DefaultPeriod.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.TrimSpace(raw))
	if p == "" {
		return DefaultPeriod, nil
	}
	if _, ok := windows[p]; !ok {
		return "", models.NewValidationError("Invalid period (use 1m, 3m, 6m or 1y)")
	}
	return p, nil
}

// ActivityPoint counts the threads created within one step of Date.
type ActivityPoint struct {
	Date      time.Time `json:"date"`
	Threads   int       `json:"threads"`
	Views     int       `json:"views"`
	Bookmarks int       `json:"bookmarks"`
}

// ThreadSummary identifies the most engaging thread.
type ThreadSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

// Report is the analytics view for one author and period.
type Report struct {
	Period         Period          `json:"period"`
	ThreadsCreated int             `json:"threadsCreated"`
	TotalBookmarks int             `json:"totalBookmarks"`
	TotalReactions int             `json:"totalReactions"`
	TotalViews     int             `json:"totalViews"`
	TotalForks     int             `json:"totalForks"`
	MostEngaged    *ThreadSummary  `json:"mostEngaged,omitempty"`
	Activity       []ActivityPoint `json:"activity"`
}

// Analytics summarizes userID's published threads created within period of now.
func Analytics(threads []models.Thread, userID string, period Period, now time.Time) Report {
	w, ok := windows[period]
	if !ok {
		period, w = DefaultPeriod, windows[DefaultPeriod]
	}
	start := now.AddDate(0, -w.months, 0)

	var inPeriod []models.Thread
	for _, t := range threads {
		if t.AuthorID == userID && !t.IsDraft && !t.CreatedAt.Before(start) {
			inPeriod = append(inPeriod, t)
		}
	}

	r := Report{Period: period, ThreadsCreated: len(inPeriod), Activity: []ActivityPoint{}}
	best := -1
	for _, t := range inPeriod {
		r.TotalBookmarks += len(t.Bookmarks)
		r.TotalReactions += t.ReactionCount()
		r.TotalViews += t.Views
		r.TotalForks += len(t.Forks)

		if score := len(t.Bookmarks) + len(t.Forks) + t.Views; score > best {
			best = score
			r.MostEngaged = &ThreadSummary{ID: t.ID, Title: t.Title, Score: score}
		}
	}

	span := time.Duration(w.step) * day
	for i := w.days; i >= 0; i -= w.step {
		p := ActivityPoint{Date: now.AddDate(0, 0, -i)}
		for _, t := range inPeriod {
			if absDuration(t.CreatedAt.Sub(p.Date)) < span {
				p.Threads++
				p.Views += t.Views
				p.Bookmarks += len(t.Bookmarks)
			}
		}
		r.Activity = append(r.Activity, p)
	}
	return r
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

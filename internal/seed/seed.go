// Package seed fills a ThreadSpire store with demo data for development and
// testing. Everything goes through the action services, so seeded data obeys
// the same rules as user input.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"threadspire/internal/models"
	"threadspire/internal/observability"
	"threadspire/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "threadspire123"

// Options configuration for the seeder
type Options struct {
	Users          int
	ThreadsPerUser int
	// Seed makes the generated data reproducible; 0 picks a random seed.
	Seed int64
}

// DefaultOptions seeds a small but lively community.
func DefaultOptions() Options {
	return Options{Users: 5, ThreadsPerUser: 3}
}

// Summary counts what a run created.
type Summary struct {
	Users       int `json:"users" yaml:"users"`
	Threads     int `json:"threads" yaml:"threads"`
	Drafts      int `json:"drafts" yaml:"drafts"`
	Forks       int `json:"forks" yaml:"forks"`
	Reactions   int `json:"reactions" yaml:"reactions"`
	Bookmarks   int `json:"bookmarks" yaml:"bookmarks"`
	Collections int `json:"collections" yaml:"collections"`
}

var tagPool = []string{
	"mindfulness", "craft", "career", "grief", "focus", "writing",
	"parenting", "habits", "learning", "patience", "rest", "courage",
}

// Seeder drives the action services to create demo data.
type Seeder struct {
	auth        *service.AuthService
	threads     *service.ThreadService
	collections *service.CollectionService
	logger      *slog.Logger
}

// NewSeeder creates a Seeder over the given services.
func NewSeeder(auth *service.AuthService, threads *service.ThreadService, collections *service.CollectionService) *Seeder {
	return &Seeder{
		auth:        auth,
		threads:     threads,
		collections: collections,
		logger:      observability.Logger,
	}
}

type account struct {
	user    *models.User
	email   string
	threads []string
}

// Run registers opts.Users accounts, has each write threads, then lets every
// account react to, bookmark, collect and fork the others' work. The session
// is signed out afterwards.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	faker := gofakeit.New(opts.Seed)

	accounts := make([]*account, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		acc, err := s.register(ctx, faker, i)
		if err != nil {
			return sum, err
		}
		sum.Users++

		for j := 0; j < opts.ThreadsPerUser; j++ {
			draft := j == opts.ThreadsPerUser-1 && faker.Bool()
			id, err := s.threads.CreateThread(ctx, service.CreateThreadInput{
				Title:    strings.TrimSuffix(faker.Sentence(faker.Number(3, 7)), "."),
				Segments: segments(faker),
				Tags:     pick(faker, tagPool, faker.Number(1, 3)),
				IsDraft:  draft,
			})
			if err != nil {
				return sum, fmt.Errorf("seed thread for %s: %w", acc.user.Username, err)
			}
			if draft {
				sum.Drafts++
				continue
			}
			sum.Threads++
			acc.threads = append(acc.threads, id)
		}
		accounts = append(accounts, acc)
	}

	for i, acc := range accounts {
		if len(accounts) < 2 {
			break
		}
		if _, err := s.auth.Login(ctx, acc.email, DefaultPassword); err != nil {
			return sum, fmt.Errorf("seed login %s: %w", acc.user.Username, err)
		}
		if err := s.engage(ctx, faker, acc, accounts[(i+1)%len(accounts)], &sum); err != nil {
			return sum, err
		}
	}

	if err := s.auth.Logout(ctx); err != nil {
		return sum, err
	}
	s.logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("threads", sum.Threads),
		slog.Int("forks", sum.Forks),
	)
	return sum, nil
}

// engage has the signed-in acc interact with other's published threads.
func (s *Seeder) engage(ctx context.Context, faker *gofakeit.Faker, acc, other *account, sum *Summary) error {
	if len(other.threads) == 0 {
		return nil
	}

	collectionID, err := s.collections.CreateCollection(ctx, "Saved from "+other.user.Username)
	if err != nil {
		return fmt.Errorf("seed collection: %w", err)
	}
	sum.Collections++

	for _, id := range other.threads {
		th, err := s.threads.Get(id)
		if err != nil {
			return err
		}
		for _, seg := range th.Segments {
			if !faker.Bool() {
				continue
			}
			kind := models.ReactionKinds[faker.Number(0, len(models.ReactionKinds)-1)]
			if _, err := s.threads.ReactToSegment(ctx, id, seg.ID, string(kind)); err != nil {
				return fmt.Errorf("seed reaction: %w", err)
			}
			sum.Reactions++
		}
		for v := faker.Number(1, 20); v > 0; v-- {
			if err := s.threads.IncrementViews(ctx, id); err != nil {
				return err
			}
		}
		if faker.Bool() {
			if _, err := s.threads.BookmarkThread(ctx, id); err != nil {
				return fmt.Errorf("seed bookmark: %w", err)
			}
			sum.Bookmarks++
			if err := s.collections.AddThreadToCollection(ctx, collectionID, id); err != nil {
				return fmt.Errorf("seed collect: %w", err)
			}
		}
	}

	if _, err := s.threads.ForkThread(ctx, other.threads[0]); err != nil {
		return fmt.Errorf("seed fork: %w", err)
	}
	sum.Forks++
	return nil
}

func (s *Seeder) register(ctx context.Context, faker *gofakeit.Faker, i int) (*account, error) {
	username := fmt.Sprintf("%s%02d", handle(faker.FirstName()), i+1)
	email := username + "@threadspire.test"
	user, err := s.auth.Register(ctx, service.RegisterInput{
		Email:    email,
		Password: DefaultPassword,
		Username: username,
	})
	if err != nil {
		return nil, fmt.Errorf("seed user %s: %w", username, err)
	}
	return &account{user: user, email: email}, nil
}

func segments(faker *gofakeit.Faker) []string {
	out := make([]string, faker.Number(2, 5))
	for i := range out {
		out[i] = faker.Paragraph(1, faker.Number(2, 4), 12, " ")
	}
	return out
}

func pick(faker *gofakeit.Faker, pool []string, n int) []string {
	shuffled := append([]string(nil), pool...)
	faker.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// handle lowercases name and drops anything a username may not contain.
func handle(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() < 2 {
		return "user"
	}
	return b.String()
}

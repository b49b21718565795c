package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"threadspire/internal/service"

	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set, usually loaded from YAML.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

// FixtureUser is one account and the threads it authors.
type FixtureUser struct {
	Username string          `yaml:"username"`
	Email    string          `yaml:"email"`
	Password string          `yaml:"password"`
	Threads  []FixtureThread `yaml:"threads"`
}

// FixtureThread is one authored thread.
type FixtureThread struct {
	Title    string   `yaml:"title"`
	Segments []string `yaml:"segments"`
	Tags     []string `yaml:"tags"`
	Draft    bool     `yaml:"draft"`
}

// DecodeFixture reads a YAML fixture. Unknown keys are rejected.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()
	return DecodeFixture(file)
}

// Apply registers the fixture's users and creates their threads. A blank
// password falls back to DefaultPassword. The session is signed out afterwards.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	var sum Summary
	for _, u := range f.Users {
		password := u.Password
		if password == "" {
			password = DefaultPassword
		}
		if _, err := s.auth.Register(ctx, service.RegisterInput{
			Email:    u.Email,
			Password: password,
			Username: u.Username,
		}); err != nil {
			return sum, fmt.Errorf("fixture user %s: %w", u.Username, err)
		}
		sum.Users++

		for _, th := range u.Threads {
			if _, err := s.threads.CreateThread(ctx, service.CreateThreadInput{
				Title:    th.Title,
				Segments: th.Segments,
				Tags:     th.Tags,
				IsDraft:  th.Draft,
			}); err != nil {
				return sum, fmt.Errorf("fixture thread %q: %w", th.Title, err)
			}
			if th.Draft {
				sum.Drafts++
			} else {
				sum.Threads++
			}
		}
	}
	if err := s.auth.Logout(ctx); err != nil {
		return sum, err
	}
	return sum, nil
}

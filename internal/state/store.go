package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"

	"threadspire/internal/observability"
)

// ErrStoreClosed is returned by operations on a closed Store.
var ErrStoreClosed = errors.New("state store closed")

// Commit describes one applied state change.
type Commit struct {
	Prev        State
	Next        State
	Transitions []Transition
	Changed     Change
}

// Listener observes commits. Listeners run synchronously on the store's
// goroutine, in commit order, and must not call back into the Store.
type Listener func(ctx context.Context, c Commit)

// UpdateFunc computes the transitions to commit from the current state.
// Returning an error commits nothing.
type UpdateFunc func(current State) ([]Transition, error)

type request struct {
	ctx   context.Context
	fn    UpdateFunc
	reply chan result
}

type result struct {
	state State
	err   error
}

// Store owns the application state. All mutations are funnelled through a
// single goroutine, so every commit is linearizable; reads go through an
// atomically published snapshot.
type Store struct {
	current  atomic.Pointer[State]
	requests chan request
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
	logger   *slog.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for listener panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore starts a Store seeded with initial.
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		requests:  make(chan request),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    observability.Logger,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&initial)
	go s.run()
	return s
}

// Snapshot returns the last committed state.
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// Dispatch applies ts as one atomic commit and returns the resulting state.
func (s *Store) Dispatch(ctx context.Context, ts ...Transition) (State, error) {
	return s.Update(ctx, func(State) ([]Transition, error) {
		return ts, nil
	})
}

// Update runs fn on the store's goroutine against the current state and
// commits the transitions it returns in one step.
func (s *Store) Update(ctx context.Context, fn UpdateFunc) (State, error) {
	req := request{ctx: ctx, fn: fn, reply: make(chan result, 1)}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.quit:
		return State{}, ErrStoreClosed
	}

	select {
	case res := <-req.reply:
		return res.state, res.err
	case <-s.done:
		return State{}, ErrStoreClosed
	}
}

// Subscribe registers a commit listener and returns a function removing it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Close stops the store goroutine. It is safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
	<-s.done
}

func (s *Store) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.requests:
			req.reply <- s.handle(req)
		}
	}
}

func (s *Store) handle(req request) (res result) {
	prev := s.Snapshot()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(req.ctx, "state update panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			res = result{state: prev, err: fmt.Errorf("state update panicked: %v", r)}
		}
	}()

	ts, err := req.fn(prev)
	if err != nil {
		return result{state: prev, err: err}
	}

	next := prev
	for _, t := range ts {
		next = Reduce(next, t)
	}

	changed := Diff(prev, next)
	if changed == 0 {
		return result{state: prev}
	}

	s.current.Store(&next)
	observability.CommitsTotal.Inc()
	for _, t := range Flatten(ts...) {
		observability.TransitionsTotal.WithLabelValues(string(t.Kind())).Inc()
	}

	// listeners see the commit even if the caller has since cancelled
	s.notify(context.WithoutCancel(req.ctx), Commit{Prev: prev, Next: next, Transitions: ts, Changed: changed})
	return result{state: next}
}

func (s *Store) notify(ctx context.Context, c Commit) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.ErrorContext(ctx, "state listener panicked",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			l(ctx, c)
		}()
	}
}

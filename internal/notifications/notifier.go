// Package notifications publishes store commits as change events over Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"threadspire/internal/observability"
	"threadspire/internal/state"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis channel change events are published on.
const Channel = "threadspire:events"

const defaultQueueSize = 256

// Notifier provides helpers to publish change events into Redis.
type Notifier struct {
	rdb    *redis.Client
	queue  chan Event
	now    func() time.Time
	logger *slog.Logger
}

// NewNotifier creates a Notifier using the provided Redis client. A nil
// client turns every method into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{
		rdb:    rdb,
		queue:  make(chan Event, defaultQueueSize),
		now:    time.Now,
		logger: observability.Logger,
	}
}

// Publish sends one event to Channel.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	for _, k := range ev.Kinds {
		observability.EventsPublished.WithLabelValues(string(k)).Inc()
	}
	return nil
}

// Listener returns a store listener that queues an event per commit. It never
// blocks the store: when the queue is full the event is dropped and logged.
func (n *Notifier) Listener() state.Listener {
	return func(ctx context.Context, c state.Commit) {
		if n.rdb == nil || c.Changed == state.ChangedLoading {
			return
		}
		ev := EventFromCommit(c, n.now())
		select {
		case n.queue <- ev:
		default:
			n.logger.WarnContext(ctx, "change event dropped, queue full", slog.String("event_id", ev.ID))
		}
	}
}

// Run publishes queued events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.queue:
			if err := n.Publish(ctx, ev); err != nil {
				n.logger.ErrorContext(ctx, "change event publish failed",
					slog.String("event_id", ev.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Subscribe calls onEvent for each event received on Channel until ctx is
// cancelled. Malformed payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, Channel)
	// wait for the subscription so no event published after return is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					n.logger.Warn("malformed change event", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							n.logger.Error("panic in event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}

// Package tracker drives the bounded polling loop that turns the raw
// processing status of a case into a stream of display-state updates.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/progress"
)

// StatusSource reads the latest raw processing status for a case.
type StatusSource interface {
	ProcessingStatus(ctx context.Context, caseID string) (string, error)
}

// TerminalReason marks why a subscription stopped emitting.
type TerminalReason string

const (
	TerminalCompleted TerminalReason = "completed"
	TerminalTimedOut  TerminalReason = "timed_out"
)

// Update is one emission of the polling loop. Terminal is empty while
// the loop is still live; the update carrying a terminal reason is the
// last one delivered.
type Update struct {
	State    progress.DisplayState
	Terminal TerminalReason
}

// Config bounds the polling loop.
type Config struct {
	Interval    time.Duration
	MaxDuration time.Duration
}

const (
	defaultInterval    = 2 * time.Second
	defaultMaxDuration = 5 * time.Minute
)

func (c Config) normalize() Config {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = defaultMaxDuration
	}
	return c
}

// Tracker polls a StatusSource on a fixed interval for a bounded
// duration. It is safe for concurrent use; each Start call owns an
// independent subscription.
type Tracker struct {
	source StatusSource
	clock  Clock
	logger *slog.Logger
	cfg    Config
}

func New(source StatusSource, clock Clock, logger *slog.Logger, cfg Config) *Tracker {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		source: source,
		clock:  clock,
		logger: logger,
		cfg:    cfg.normalize(),
	}
}

// Start begins polling for caseID and invokes onUpdate with each fresh
// display state. The first cycle runs immediately; afterwards one cycle
// runs per interval while elapsed time stays under MaxDuration. The
// loop ends on a raw "completed" observation, on the duration bound
// (one final timed_out update), or when the subscription is stopped.
func (t *Tracker) Start(ctx context.Context, caseID string, onUpdate func(Update)) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(runCtx, caseID, sub, onUpdate)
	return sub
}

func (t *Tracker) run(ctx context.Context, caseID string, sub *Subscription, onUpdate func(Update)) {
	defer close(sub.done)
	defer sub.cancel()

	start := t.clock.Now()
	state := progress.DisplayState{}

	for {
		if t.clock.Now().Sub(start) >= t.cfg.MaxDuration {
			sub.deliver(onUpdate, Update{State: state, Terminal: TerminalTimedOut})
			return
		}

		raw, err := t.source.ProcessingStatus(ctx, caseID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			// A single failed fetch is not fatal; the next tick retries.
			t.logger.Error("status_fetch_failed", "case_id", caseID, "error", err)
		case raw == domain.StatusCompleted:
			state = progress.Normalize(raw, state)
			sub.deliver(onUpdate, Update{State: state, Terminal: TerminalCompleted})
			return
		default:
			state = progress.Normalize(raw, state)
			if !sub.deliver(onUpdate, Update{State: state}) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(t.cfg.Interval):
		}
	}
}

// Subscription is the cancellation handle for one polling loop.
type Subscription struct {
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Stop cancels the loop. No new deliveries begin after Stop returns:
// an in-flight cycle's result is discarded, not delivered. Stop never
// waits on the onUpdate callback, so a consumer blocked inside its own
// callback can still tear the subscription down.
func (s *Subscription) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		s.cancel()
	}
	s.mu.Unlock()
}

// Done closes after the polling goroutine has fully exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// deliver checks the stopped flag and then invokes onUpdate outside the
// mutex. Holding the lock across the callback would let a blocked
// consumer deadlock Stop.
func (s *Subscription) deliver(onUpdate func(Update), u Update) bool {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return false
	}
	onUpdate(u)
	return true
}

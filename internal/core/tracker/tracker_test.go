package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stepClock advances its notion of now by d on every After call and
// returns an already-fired channel, so the loop runs without sleeping.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type scriptedSource struct {
	mu       sync.Mutex
	statuses []string
	errs     map[int]error
	calls    int

	gate    chan struct{}
	started chan struct{}
}

func (s *scriptedSource) ProcessingStatus(ctx context.Context, _ string) (string, error) {
	s.mu.Lock()
	call := s.calls
	s.calls++
	started := s.started
	gate := s.gate
	s.mu.Unlock()

	if started != nil && call == 0 {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err := s.errs[call]; err != nil {
		return "", err
	}
	idx := call
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	return s.statuses[idx], nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type updateRecorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *updateRecorder) record(u Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *updateRecorder) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

func waitDone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("tracker did not finish")
	}
}

func TestImmediateFirstCycleAndCompletedTerminal(t *testing.T) {
	source := &scriptedSource{statuses: []string{"pending", "completed"}}
	rec := &updateRecorder{}
	tr := New(source, &stepClock{}, nil, Config{Interval: time.Second, MaxDuration: time.Minute})

	sub := tr.Start(context.Background(), "case-1", rec.record)
	waitDone(t, sub)

	updates := rec.all()
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d: %+v", len(updates), updates)
	}
	if updates[0].Terminal != "" || updates[0].State.Percent != 5 {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	last := updates[1]
	if last.Terminal != TerminalCompleted {
		t.Fatalf("expected completed terminal, got %+v", last)
	}
	if last.State.Label != "Completing assessment..." || last.State.Percent != 100 {
		t.Fatalf("unexpected terminal state: %+v", last.State)
	}
	if source.callCount() != 2 {
		t.Fatalf("expected 2 fetches, got %d", source.callCount())
	}
}

func TestMaxDurationBoundsFetchCycles(t *testing.T) {
	source := &scriptedSource{statuses: []string{"pending"}}
	rec := &updateRecorder{}
	tr := New(source, &stepClock{}, nil, Config{Interval: time.Second, MaxDuration: 5 * time.Second})

	sub := tr.Start(context.Background(), "case-1", rec.record)
	waitDone(t, sub)

	// Fetches happen at t=0..4; the tick landing on t=5 hits the bound.
	if source.callCount() != 5 {
		t.Fatalf("expected exactly 5 fetch cycles, got %d", source.callCount())
	}
	updates := rec.all()
	if len(updates) != 6 {
		t.Fatalf("expected 5 live updates plus terminal, got %d", len(updates))
	}
	last := updates[len(updates)-1]
	if last.Terminal != TerminalTimedOut {
		t.Fatalf("expected timed_out terminal, got %+v", last)
	}
	for _, u := range updates[:len(updates)-1] {
		if u.Terminal != "" {
			t.Fatalf("unexpected terminal mid-stream: %+v", u)
		}
	}
}

func TestFetchErrorDoesNotStopLoop(t *testing.T) {
	source := &scriptedSource{
		statuses: []string{"pending", "pending", "completed"},
		errs:     map[int]error{1: errors.New("store unavailable")},
	}
	rec := &updateRecorder{}
	tr := New(source, &stepClock{}, nil, Config{Interval: time.Second, MaxDuration: time.Minute})

	sub := tr.Start(context.Background(), "case-1", rec.record)
	waitDone(t, sub)

	if source.callCount() != 3 {
		t.Fatalf("expected 3 fetches, got %d", source.callCount())
	}
	updates := rec.all()
	// The failed cycle emits nothing; the loop keeps its cadence.
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d: %+v", len(updates), updates)
	}
	if updates[1].Terminal != TerminalCompleted {
		t.Fatalf("expected completed terminal, got %+v", updates[1])
	}
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	source := &scriptedSource{
		statuses: []string{"completed"},
		gate:     make(chan struct{}),
		started:  make(chan struct{}),
	}
	rec := &updateRecorder{}
	tr := New(source, &stepClock{}, nil, Config{Interval: time.Second, MaxDuration: time.Minute})

	sub := tr.Start(context.Background(), "case-1", rec.record)

	<-source.started
	sub.Stop()
	close(source.gate)
	waitDone(t, sub)

	if got := rec.all(); len(got) != 0 {
		t.Fatalf("expected zero updates after Stop, got %+v", got)
	}
}

func TestStopReturnsWhileCallbackBlocked(t *testing.T) {
	source := &scriptedSource{statuses: []string{"pending"}}
	tr := New(source, &stepClock{}, nil, Config{Interval: time.Second, MaxDuration: time.Minute})

	// Unbuffered: the first delivery blocks inside the callback until
	// somebody receives, the shape of a consumer that stopped reading.
	blocked := make(chan Update)
	entered := make(chan struct{})
	var once sync.Once
	sub := tr.Start(context.Background(), "case-1", func(u Update) {
		once.Do(func() { close(entered) })
		blocked <- u
	})

	<-entered
	stopReturned := make(chan struct{})
	go func() {
		sub.Stop()
		close(stopReturned)
	}()

	select {
	case <-stopReturned:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked behind the stalled consumer callback")
	}

	// Release the stuck delivery so the polling goroutine can exit.
	<-blocked
	waitDone(t, sub)
}

func TestStopIsIdempotent(t *testing.T) {
	source := &scriptedSource{statuses: []string{"completed"}}
	tr := New(source, &stepClock{}, nil, Config{})

	sub := tr.Start(context.Background(), "case-1", func(Update) {})
	waitDone(t, sub)
	sub.Stop()
	sub.Stop()
}

func TestUnknownStatusPassesThroughAndKeepsPolling(t *testing.T) {
	source := &scriptedSource{statuses: []string{"warming_up_gpu", "completed"}}
	rec := &updateRecorder{}
	tr := New(source, &stepClock{}, nil, Config{Interval: time.Second, MaxDuration: time.Minute})

	sub := tr.Start(context.Background(), "case-1", rec.record)
	waitDone(t, sub)

	updates := rec.all()
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].State.Label != "warming_up_gpu" || updates[0].State.Percent != 0 {
		t.Fatalf("expected raw pass-through, got %+v", updates[0].State)
	}
}

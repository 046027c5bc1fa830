package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgard/quotebot/internal/resilience"
)

type flakySender struct {
	calls atomic.Int32
	err   error
}

func (s *flakySender) Deliver(context.Context, int64, string) error {
	s.calls.Add(1)
	return s.err
}

func TestGuardedSenderOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	next := &flakySender{err: errors.New("bad gateway")}
	var transitions []resilience.CircuitState
	g := resilience.NewGuardedSender(next, resilience.Config{
		MaxFailures:   3,
		ResetInterval: time.Hour,
		OnStateChange: func(_ string, _, to resilience.CircuitState) {
			transitions = append(transitions, to)
		},
	}, nil)

	ctx := context.Background()
	for range 3 {
		if err := g.Deliver(ctx, 1, "q"); err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
			t.Fatalf("Deliver() error = %v, want the sender's error", err)
		}
	}
	if g.State() != resilience.StateOpen {
		t.Fatalf("state = %v, want OPEN", g.State())
	}

	if err := g.Deliver(ctx, 1, "q"); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Deliver() on open circuit error = %v", err)
	}
	if got := next.calls.Load(); got != 3 {
		t.Errorf("wrapped sender called %d times, want 3", got)
	}
	if len(transitions) != 1 || transitions[0] != resilience.StateOpen {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestGuardedSenderIgnoresCancellation(t *testing.T) {
	t.Parallel()

	next := &flakySender{err: context.Canceled}
	g := resilience.NewGuardedSender(next, resilience.Config{MaxFailures: 1}, nil)

	for range 5 {
		_ = g.Deliver(context.Background(), 1, "q")
	}
	if g.State() != resilience.StateClosed {
		t.Errorf("state = %v, want CLOSED", g.State())
	}
}

func TestGuardedSenderPassesSuccess(t *testing.T) {
	t.Parallel()

	next := &flakySender{}
	g := resilience.NewGuardedSender(next, resilience.Config{}, nil)
	if err := g.Deliver(context.Background(), 9, "q"); err != nil {
		t.Errorf("Deliver() error = %v", err)
	}
	if next.calls.Load() != 1 {
		t.Errorf("calls = %d", next.calls.Load())
	}
}

func TestGuardedSenderIgnoresRecipientErrors(t *testing.T) {
	t.Parallel()

	errBlocked := errors.New("forbidden: bot was blocked by the user")
	next := &flakySender{err: errBlocked}
	g := resilience.NewGuardedSender(next, resilience.Config{
		MaxFailures: 2,
		IgnoreError: func(err error) bool { return errors.Is(err, errBlocked) },
	}, nil)

	for range 10 {
		if err := g.Deliver(context.Background(), 1, "q"); !errors.Is(err, errBlocked) {
			t.Fatalf("Deliver() error = %v, want the recipient error", err)
		}
	}
	if g.State() != resilience.StateClosed {
		t.Errorf("state = %v, want CLOSED", g.State())
	}
}

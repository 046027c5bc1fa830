package dispatch

import (
	"context"
	"sync"
	"time"
)

// DateLayout is the calendar date format used for fire state.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, formatted as YYYY-MM-DD.
type Date string

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// FireState records whether a chat ever received its scheduled quote and on which date.
// The zero value means the chat never fired.
type FireState struct {
	fired bool
	on    Date
}

// NeverFired is the state of a chat with no scheduled delivery yet.
func NeverFired() FireState { return FireState{} }

// FiredOn is the state of a chat last delivered on day.
func FiredOn(day Date) FireState { return FireState{fired: true, on: day} }

// Date returns the last fired date and whether the chat ever fired.
func (s FireState) Date() (Date, bool) { return s.on, s.fired }

// FiredOnDay reports whether the last delivery happened on day.
func (s FireState) FiredOnDay(day Date) bool { return s.fired && s.on == day }

func (s FireState) String() string {
	if !s.fired {
		return "never_fired"
	}
	return "fired_on(" + string(s.on) + ")"
}

// Ledger tracks the fire state of each chat.
type Ledger interface {
	State(ctx context.Context, chatID int64) (FireState, error)
	MarkFired(ctx context.Context, chatID int64, day Date) error
}

// MemoryLedger is a Ledger kept in process memory.
type MemoryLedger struct {
	mu    sync.Mutex
	state map[int64]Date
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{state: make(map[int64]Date)}
}

func (l *MemoryLedger) State(_ context.Context, chatID int64) (FireState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day, ok := l.state[chatID]
	if !ok {
		return NeverFired(), nil
	}
	return FiredOn(day), nil
}

func (l *MemoryLedger) MarkFired(_ context.Context, chatID int64, day Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state[chatID] = day
	return nil
}

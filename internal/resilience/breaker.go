// Package resilience guards outbound deliveries with a circuit breaker so that an
// unreachable Bot API fails fast instead of holding every tick for the full delivery
// timeout.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects deliveries.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateHalfOpen
	StateOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF-OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

func mapState(state gobreaker.State) CircuitState {
	switch state {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

// Sender delivers one text message to a chat.
type Sender interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// Config holds the breaker settings.
type Config struct {
	Name string
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int
	// ResetInterval is how long the circuit stays open before a trial delivery is allowed.
	// Keep it below the dispatch interval so an open circuit costs at most one tick.
	ResetInterval time.Duration
	// IgnoreError reports errors that concern one recipient only. They are returned to
	// the caller but never count toward MaxFailures.
	IgnoreError   func(error) bool
	OnStateChange func(name string, from, to CircuitState)
}

// GuardedSender wraps a Sender with a circuit breaker.
type GuardedSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// NewGuardedSender creates a GuardedSender around next.
func NewGuardedSender(next Sender, cfg Config, logger *slog.Logger) *GuardedSender {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Name == "" {
		cfg.Name = "telegram_delivery"
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = 15 * time.Second
	}
	log := logger.With("component", "circuit_breaker", "name", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.ResetInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		// A cancelled tick or an unreachable chat says nothing about the health of the API.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return cfg.IgnoreError != nil && cfg.IgnoreError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromState, toState := mapState(from), mapState(to)
			log.Warn("Circuit breaker state changed", "from", fromState, "to", toState)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, fromState, toState)
			}
		},
	}

	return &GuardedSender{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Deliver forwards to the wrapped Sender unless the circuit is open.
func (g *GuardedSender) Deliver(ctx context.Context, chatID int64, text string) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.next.Deliver(ctx, chatID, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

// State returns the current breaker state.
func (g *GuardedSender) State() CircuitState {
	return mapState(g.cb.State())
}

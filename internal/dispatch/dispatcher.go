// Package dispatch delivers the daily quote to every chat whose preferred time has come.
//
// A Dispatcher is driven by an external timer. Each Tick compares the current minute with
// every stored preference and consults a Ledger so that a chat receives at most one
// scheduled quote per calendar date, however many ticks land inside the matching minute.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/quotebot/internal/metrics"
	"github.com/edgard/quotebot/internal/prefs"
	"github.com/edgard/quotebot/internal/quotes"
)

// ErrDeliveryFailure wraps transport errors raised while sending a scheduled quote.
var ErrDeliveryFailure = errors.New("delivery failure")

const (
	defaultDeliveryTimeout = 10 * time.Second
	defaultConcurrency     = 8
)

// Sender delivers a text message to a chat.
type Sender interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// Preferences is the read side of the preference store.
type Preferences interface {
	Load(ctx context.Context) (map[int64]prefs.Record, error)
}

// Delivery describes one successful scheduled send.
type Delivery struct {
	ChatID      int64
	Day         Date
	Category    string
	Quote       string
	DeliveredAt time.Time
}

// Journal keeps a history of scheduled deliveries.
type Journal interface {
	RecordDelivery(ctx context.Context, d Delivery) error
}

// Summary reports what a single tick did.
type Summary struct {
	Matched int
	Sent    int
	Failed  int
	Skipped int
}

// Dispatcher evaluates preferences against the clock and sends due quotes.
type Dispatcher struct {
	prefs   Preferences
	catalog *quotes.Catalog
	ledger  Ledger
	sender  Sender
	journal Journal
	clock   clockwork.Clock
	timeout time.Duration
	limit   int
	logger  *slog.Logger

	mu sync.Mutex // serializes ticks

	// inflight holds chats whose delivery timed out but whose send has not returned.
	inflightMu sync.Mutex
	inflight   map[int64]struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the clock used to read the current time.
func WithClock(c clockwork.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithJournal records every successful delivery in j.
func WithJournal(j Journal) Option {
	return func(d *Dispatcher) { d.journal = j }
}

// WithDeliveryTimeout bounds each individual delivery.
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithConcurrency bounds how many deliveries of one tick run at once.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// New creates a Dispatcher. A nil ledger means an in-memory one.
func New(p Preferences, catalog *quotes.Catalog, ledger Ledger, sender Sender, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if catalog == nil {
		catalog = quotes.Default()
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}

	d := &Dispatcher{
		prefs:    p,
		catalog:  catalog,
		ledger:   ledger,
		sender:   sender,
		clock:    clockwork.NewRealClock(),
		timeout:  defaultDeliveryTimeout,
		limit:    defaultConcurrency,
		logger:   logger.With("component", "dispatcher"),
		inflight: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tick runs one evaluation. It returns an error only when preferences cannot be loaded;
// per-chat failures are logged and reflected in the summary.
func (d *Dispatcher) Tick(ctx context.Context) (Summary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, tickID := metrics.WithCorrelation(ctx)
	log := d.logger.With("tick_id", tickID)
	metrics.IncTick()

	now := d.clock.Now()
	minute := now.Format("15:04")
	today := DateOf(now)

	records, err := d.prefs.Load(ctx)
	if err != nil {
		metrics.IncStoreError("load")
		log.ErrorContext(ctx, "Failed to load preferences for tick", "error", err)
		return Summary{}, fmt.Errorf("load preferences: %w", err)
	}

	var (
		sum    Summary
		sent   atomic.Int64
		failed atomic.Int64
	)

	g := new(errgroup.Group)
	g.SetLimit(d.limit)

	for chatID, rec := range records {
		if rec.Time != minute {
			continue
		}
		sum.Matched++

		state, err := d.ledger.State(ctx, chatID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read fire state, skipping chat", "chat_id", chatID, "error", err)
			d.skip(&sum, "ledger_error")
			continue
		}
		if state.FiredOnDay(today) {
			log.DebugContext(ctx, "Already delivered today", "chat_id", chatID, "state", state)
			d.skip(&sum, "already_sent")
			continue
		}
		if d.isInflight(chatID) {
			log.DebugContext(ctx, "Previous delivery still pending", "chat_id", chatID)
			d.skip(&sum, "in_flight")
			continue
		}

		quote, err := d.catalog.RandomQuote(rec.Category)
		if err != nil {
			log.WarnContext(ctx, "Stored category not in catalog, skipping chat",
				"chat_id", chatID, "category", rec.Category, "error", err)
			d.skip(&sum, "invalid_category")
			continue
		}

		g.Go(func() error {
			if d.deliver(ctx, log, chatID, rec.Category, quote, today) {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	sum.Sent = int(sent.Load())
	sum.Failed = int(failed.Load())

	if sum.Matched > 0 {
		log.InfoContext(ctx, "Tick finished", "minute", minute, "date", today,
			"matched", sum.Matched, "sent", sum.Sent, "failed", sum.Failed, "skipped", sum.Skipped)
	} else {
		log.DebugContext(ctx, "Tick finished, nothing due", "minute", minute, "records", len(records))
	}
	return sum, nil
}

func (d *Dispatcher) skip(sum *Summary, reason string) {
	sum.Skipped++
	metrics.IncSkipped(reason)
}

// deliver sends one quote and marks the chat as fired. A sender that ignores its
// context is abandoned once the delivery timeout passes; the chat then stays in flight
// until the send returns, and is marked fired if it succeeded after all.
func (d *Dispatcher) deliver(ctx context.Context, log *slog.Logger, chatID int64, category, quote string, today Date) bool {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := d.clock.Now()
	done := make(chan error, 1)
	go func() { done <- d.sender.Deliver(dctx, chatID, quote) }()

	var err error
	select {
	case err = <-done:
	case <-dctx.Done():
		err = dctx.Err()
		d.setInflight(chatID, true)
		go d.settleLate(context.WithoutCancel(ctx), log, chatID, category, quote, today, done)
	}
	metrics.ObserveDelivery(d.clock.Since(start).Seconds())

	if err != nil {
		err = fmt.Errorf("%w: chat %d: %v", ErrDeliveryFailure, chatID, err)
		log.WarnContext(ctx, "Scheduled delivery failed", "chat_id", chatID, "error", err)
		metrics.IncDelivery("failed")
		return false
	}
	metrics.IncDelivery("sent")
	d.record(ctx, log, chatID, category, quote, today)
	return true
}

// settleLate waits for an abandoned send and records it if it went through.
func (d *Dispatcher) settleLate(ctx context.Context, log *slog.Logger, chatID int64, category, quote string, today Date, done <-chan error) {
	defer d.setInflight(chatID, false)

	if err := <-done; err != nil {
		log.DebugContext(ctx, "Abandoned delivery failed", "chat_id", chatID, "error", err)
		return
	}
	log.WarnContext(ctx, "Abandoned delivery went through after the timeout", "chat_id", chatID)
	metrics.IncDelivery("sent_late")
	d.record(ctx, log, chatID, category, quote, today)
}

func (d *Dispatcher) record(ctx context.Context, log *slog.Logger, chatID int64, category, quote string, today Date) {
	if err := d.ledger.MarkFired(ctx, chatID, today); err != nil {
		log.ErrorContext(ctx, "Delivered but failed to record fire state", "chat_id", chatID, "error", err)
	}
	if d.journal != nil {
		rec := Delivery{ChatID: chatID, Day: today, Category: category, Quote: quote, DeliveredAt: d.clock.Now()}
		if err := d.journal.RecordDelivery(ctx, rec); err != nil {
			log.WarnContext(ctx, "Failed to journal delivery", "chat_id", chatID, "error", err)
		}
	}
	log.InfoContext(ctx, "Delivered scheduled quote", "chat_id", chatID, "category", category)
}

func (d *Dispatcher) setInflight(chatID int64, pending bool) {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	if pending {
		d.inflight[chatID] = struct{}{}
	} else {
		delete(d.inflight, chatID)
	}
}

func (d *Dispatcher) isInflight(chatID int64) bool {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	_, ok := d.inflight[chatID]
	return ok
}

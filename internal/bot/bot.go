// Package bot wires the Telegram listener, the task scheduler and the metrics endpoint
// together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/quotebot/internal/config"
	"github.com/edgard/quotebot/internal/metrics"
)

// ErrListenerStopped is returned when the update listener exits on its own.
var ErrListenerStopped = errors.New("telegram listener stopped unexpectedly")

// Bot owns the long-running components of the process.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot.
func NewBot(logger *slog.Logger, cfg *config.Config, tgBot *tgbot.Bot, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of them fails.
// The first failure cancels the others.
func (b *Bot) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return b.listen(gCtx) })
	g.Go(func() error { return b.schedule(gCtx) })
	if addr := b.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error { return metrics.Serve(gCtx, addr, b.logger) })
	}

	b.logger.Info("Bot running", "metrics_addr", b.cfg.Metrics.Addr)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully.")
	return nil
}

// listen long-polls for updates until ctx is done.
func (b *Bot) listen(ctx context.Context) error {
	b.logger.Info("Starting Telegram update listener...")
	b.tgBot.Start(ctx)

	if ctx.Err() == nil {
		return ErrListenerStopped
	}
	b.logger.Info("Telegram update listener stopped.")
	return nil
}

// schedule keeps the scheduler running until ctx is done.
func (b *Bot) schedule(ctx context.Context) error {
	if err := b.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	<-ctx.Done()
	if err := b.scheduler.Stop(); err != nil {
		b.logger.Error("Error stopping scheduler", "error", err)
	}
	return nil
}

// Package main contains the entrypoint for the daily quote bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/afero"

	"github.com/edgard/quotebot/internal/bot"
	"github.com/edgard/quotebot/internal/bot/handlers"
	"github.com/edgard/quotebot/internal/bot/tasks"
	"github.com/edgard/quotebot/internal/commands"
	"github.com/edgard/quotebot/internal/config"
	"github.com/edgard/quotebot/internal/database"
	"github.com/edgard/quotebot/internal/dispatch"
	"github.com/edgard/quotebot/internal/logger"
	"github.com/edgard/quotebot/internal/metrics"
	"github.com/edgard/quotebot/internal/prefs"
	"github.com/edgard/quotebot/internal/quotes"
	"github.com/edgard/quotebot/internal/resilience"
	"github.com/edgard/quotebot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	metrics.Init()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open journal database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	journal := database.NewStore(db, log)

	catalog := quotes.Default()
	prefStore := prefs.NewStore(afero.NewOsFs(), cfg.Prefs.Path, catalog, log)
	records, err := prefStore.Load(ctx)
	if err != nil {
		log.Error("Failed to read preference snapshot", "path", cfg.Prefs.Path, "error", err)
		return 1
	}
	log.Info("Preference snapshot loaded", "path", cfg.Prefs.Path, "chats", len(records))

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Commands: commands.NewService(prefStore, catalog, cfg.Messages, log),
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.PublishCommands(ctx, tg, cfg.Telegram.Commands); err != nil {
		log.Warn("Failed to publish command list", "error", err)
	}

	sender := resilience.NewGuardedSender(telegram.NewSender(tg), resilience.Config{
		MaxFailures:   cfg.Telegram.Breaker.MaxFailures,
		ResetInterval: cfg.Telegram.Breaker.ResetInterval,
		IgnoreError:   telegram.IsChatError,
		OnStateChange: func(_ string, _, to resilience.CircuitState) {
			metrics.SetBreakerState(int(to))
		},
	}, log)
	dispatcher := dispatch.New(prefStore, catalog, journal, sender, log,
		dispatch.WithJournal(journal),
		dispatch.WithDeliveryTimeout(cfg.Scheduler.DeliveryTimeout),
		dispatch.WithConcurrency(cfg.Scheduler.MaxConcurrentDeliveries),
	)
	tDeps := tasks.TaskDeps{
		Logger:     log,
		Dispatcher: dispatcher,
		Journal:    journal,
		Config:     cfg,
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

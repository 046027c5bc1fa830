package handlers

import (
	"log/slog"

	"github.com/edgard/quotebot/internal/commands"
	"github.com/edgard/quotebot/internal/config"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Commands *commands.Service
}

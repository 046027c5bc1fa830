// Package tasks implements the scheduled tasks of the bot and their registry.
package tasks

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/quotebot/internal/config"
	"github.com/edgard/quotebot/internal/database"
	"github.com/edgard/quotebot/internal/dispatch"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Dispatcher *dispatch.Dispatcher
	Journal    database.Store // optional
	Config     *config.Config
	Clock      clockwork.Clock // defaults to the real clock
}

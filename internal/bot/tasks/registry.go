package tasks

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/quotebot/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context is cancelled
// when the scheduler shuts down.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the available tasks keyed by the name used in the scheduler
// configuration. Tasks whose dependencies are missing are left out.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	tasks := make(map[string]ScheduledTaskFunc)
	if deps.Dispatcher != nil {
		tasks[config.TaskQuoteDispatch] = newQuoteDispatchTask(deps)
	}
	if deps.Journal != nil {
		tasks[config.TaskSQLMaintenance] = newSQLMaintenanceTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

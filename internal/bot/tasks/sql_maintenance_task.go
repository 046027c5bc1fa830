package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/quotebot/internal/dispatch"
)

// newSQLMaintenanceTask creates the task that prunes old delivery history and vacuums
// the journal database.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := deps.Clock.Now()

		var retention time.Duration
		if deps.Config != nil {
			retention = deps.Config.Database.Retention
		}
		if retention > 0 {
			cutoff := dispatch.DateOf(startTime.Add(-retention))
			if _, err := deps.Journal.PruneBefore(ctx, cutoff); err != nil {
				log.ErrorContext(ctx, "Pruning delivery history failed", "error", err, "cutoff", cutoff)
				return fmt.Errorf("sql maintenance failed: %w", err)
			}
		}

		if err := deps.Journal.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", deps.Clock.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed", "duration", deps.Clock.Since(startTime))
		return nil
	}
}

package tasks

import (
	"context"
	"fmt"
)

// newQuoteDispatchTask creates the task that delivers due daily quotes.
func newQuoteDispatchTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "quote_dispatch")

	return func(ctx context.Context) error {
		sum, err := deps.Dispatcher.Tick(ctx)
		if err != nil {
			return fmt.Errorf("quote dispatch tick failed: %w", err)
		}
		if sum.Failed > 0 {
			log.WarnContext(ctx, "Some scheduled deliveries failed", "failed", sum.Failed, "sent", sum.Sent)
		}
		return nil
	}
}

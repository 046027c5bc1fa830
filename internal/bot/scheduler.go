package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/quotebot/internal/bot/tasks"
	"github.com/edgard/quotebot/internal/config"
	"github.com/edgard/quotebot/internal/logger"
)

// ErrSchedulerRunning is returned when Start is called twice.
var ErrSchedulerRunning = errors.New("scheduler is already running")

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
}

// NewScheduler creates a new scheduler instance using gocron.
func NewScheduler(log *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "scheduler")

	opts = append([]gocron.SchedulerOption{gocron.WithLogger(logger.NewGocronLogger(log))}, opts...)
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start schedules every enabled task and starts the scheduler. Interval tasks fire once
// immediately and then on every interval; cron tasks follow their schedule. Tasks receive
// a context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}

	taskCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	scheduledCount := 0
	if s.cfg == nil || len(s.cfg.Tasks) == 0 {
		s.logger.Warn("No scheduler tasks configured.")
	} else {
		for taskName, taskConfig := range s.cfg.Tasks {
			if !taskConfig.Enabled {
				s.logger.Info("Skipping disabled task", "task_name", taskName)
				continue
			}

			taskFunc, exists := s.taskMap[taskName]
			if !exists {
				s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
				continue
			}

			def, options, err := jobDefinition(taskName, taskConfig)
			if err != nil {
				s.logger.Warn("Skipping task", "task_name", taskName, "error", err)
				continue
			}

			_, err = s.scheduler.NewJob(def, gocron.NewTask(s.wrap(taskFunc), taskCtx, taskName), options...)
			if err != nil {
				s.logger.Error("Failed to schedule task", "task_name", taskName, "error", err)
				continue
			}

			s.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule, "interval", taskConfig.Interval)
			scheduledCount++
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler initialized and started", "tasks_scheduled", scheduledCount)
	return nil
}

// jobDefinition picks an interval job when an interval is set and a cron job otherwise.
// Every job runs in singleton mode so a slow run is never overlapped by the next one.
func jobDefinition(name string, tc config.TaskConfig) (gocron.JobDefinition, []gocron.JobOption, error) {
	options := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}

	switch {
	case tc.Interval > 0:
		options = append(options, gocron.WithStartAt(gocron.WithStartImmediately()))
		return gocron.DurationJob(tc.Interval), options, nil
	case tc.Schedule != "":
		return gocron.CronJob(tc.Schedule, false), options, nil
	default:
		return nil, nil, errors.New("task has neither interval nor schedule")
	}
}

func (s *Scheduler) wrap(taskFunc tasks.ScheduledTaskFunc) func(context.Context, string) {
	return func(ctx context.Context, name string) {
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("Running scheduled task", "task_name", name)
		startTime := time.Now()
		if err := taskFunc(ctx); err != nil {
			s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
		}
		s.logger.Debug("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
	}
}

// Stop cancels running tasks and shuts the scheduler down, waiting for jobs to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}

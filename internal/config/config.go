// Package config loads the bot configuration from defaults, a YAML file, a .env file
// and BOT_* environment variables, and validates the result.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Prefs     PrefsConfig     `mapstructure:"prefs"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type TelegramConfig struct {
	Token    string          `mapstructure:"token"    validate:"required"`
	Commands []CommandConfig `mapstructure:"commands" validate:"dive"`
	Breaker  BreakerConfig   `mapstructure:"breaker"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// BreakerConfig controls the circuit breaker around scheduled deliveries.
type BreakerConfig struct {
	MaxFailures   int           `mapstructure:"max_failures"   validate:"min=1"`
	ResetInterval time.Duration `mapstructure:"reset_interval" validate:"min=1s"`
}

// CommandConfig is one entry of the bot command menu.
type CommandConfig struct {
	Command     string `mapstructure:"command"     validate:"required,lowercase"`
	Description string `mapstructure:"description" validate:"required"`
}

type PrefsConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type DatabaseConfig struct {
	Path      string        `mapstructure:"path"      validate:"required"`
	Retention time.Duration `mapstructure:"retention" validate:"min=24h"`
}

type SchedulerConfig struct {
	DeliveryTimeout         time.Duration         `mapstructure:"delivery_timeout"          validate:"min=1s,max=5m"`
	MaxConcurrentDeliveries int                   `mapstructure:"max_concurrent_deliveries" validate:"min=1,max=100"`
	Tasks                   map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a scheduled task and sets when it runs. Interval takes precedence
// over a cron Schedule.
type TaskConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	Interval time.Duration `mapstructure:"interval"`
}

type MetricsConfig struct {
	// Addr is the listen address of the metrics server; empty disables it.
	Addr string `mapstructure:"addr"`
}

// MessagesConfig holds every user-facing reply. Entries tagged printf1 are format
// strings with exactly one verb, which receives the value named in their comment.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"          validate:"required"`
	Help            string `mapstructure:"help"             validate:"required"`
	TimeSet         string `mapstructure:"time_set"         validate:"required,printf1"` // time
	TimeInvalid     string `mapstructure:"time_invalid"     validate:"required"`
	TimeMissing     string `mapstructure:"time_missing"     validate:"required"`
	CategorySet     string `mapstructure:"category_set"     validate:"required,printf1"` // category
	CategoryInvalid string `mapstructure:"category_invalid" validate:"required,printf1"` // category list
	CategoryMissing string `mapstructure:"category_missing" validate:"required,printf1"` // category list
	QuoteMissing    string `mapstructure:"quote_missing"    validate:"required,printf1"` // category list
	QuoteNotFound   string `mapstructure:"quote_not_found"  validate:"required"`
	YouTube         string `mapstructure:"youtube"          validate:"required"`
	GeneralError    string `mapstructure:"general_error"    validate:"required"`
}

// Validate checks struct tags and task schedules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("printf1", func(fl validator.FieldLevel) bool {
		return formatVerbs(fl.Field().String()) == 1
	}); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return err
	}

	for name, task := range c.Scheduler.Tasks {
		if !task.Enabled {
			continue
		}
		if task.Interval <= 0 && task.Schedule == "" {
			return fmt.Errorf("task %q is enabled but has neither interval nor schedule", name)
		}
		if task.Interval > 0 && task.Interval < time.Second {
			return fmt.Errorf("task %q interval %s is below 1s", name, task.Interval)
		}
	}

	// Delivery matches on the exact minute, so every minute must see at least one tick,
	// and an open breaker must allow a trial delivery before the next tick.
	if task, ok := c.Scheduler.Tasks[TaskQuoteDispatch]; ok && task.Enabled && task.Interval > 0 {
		if task.Interval >= time.Minute {
			return fmt.Errorf("task %q interval %s must be below 1m", TaskQuoteDispatch, task.Interval)
		}
		if c.Telegram.Breaker.ResetInterval >= task.Interval {
			return fmt.Errorf("breaker reset interval %s must be below the %q interval %s",
				c.Telegram.Breaker.ResetInterval, TaskQuoteDispatch, task.Interval)
		}
	}
	return nil
}

// formatVerbs counts the fmt verbs in format, ignoring escaped %%.
func formatVerbs(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

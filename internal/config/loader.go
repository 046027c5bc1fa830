package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from, in increasing precedence:
//  1. default values
//  2. the YAML file at path (optional)
//  3. a .env file in the working directory (optional)
//  4. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// setDefaults registers every key so that environment overrides apply to it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.commands", DefaultCommands)
	v.SetDefault("telegram.breaker.max_failures", DefaultBreakerMaxFailures)
	v.SetDefault("telegram.breaker.reset_interval", DefaultBreakerResetInterval)

	v.SetDefault("prefs.path", DefaultPrefsPath)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.retention", DefaultDatabaseRetention)

	v.SetDefault("scheduler.delivery_timeout", DefaultDeliveryTimeout)
	v.SetDefault("scheduler.max_concurrent_deliveries", DefaultMaxConcurrentDeliveries)
	v.SetDefault("scheduler.tasks."+TaskQuoteDispatch+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskQuoteDispatch+".interval", DefaultDispatchInterval)
	v.SetDefault("scheduler.tasks."+TaskQuoteDispatch+".schedule", "")
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".interval", 0)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".schedule", DefaultMaintenanceSchedule)

	v.SetDefault("metrics.addr", DefaultMetricsAddr)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.time_set", DefaultMessages.TimeSet)
	v.SetDefault("messages.time_invalid", DefaultMessages.TimeInvalid)
	v.SetDefault("messages.time_missing", DefaultMessages.TimeMissing)
	v.SetDefault("messages.category_set", DefaultMessages.CategorySet)
	v.SetDefault("messages.category_invalid", DefaultMessages.CategoryInvalid)
	v.SetDefault("messages.category_missing", DefaultMessages.CategoryMissing)
	v.SetDefault("messages.quote_missing", DefaultMessages.QuoteMissing)
	v.SetDefault("messages.quote_not_found", DefaultMessages.QuoteNotFound)
	v.SetDefault("messages.youtube", DefaultMessages.YouTube)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
}

package config

import "time"

// Task names known to the scheduler.
const (
	TaskQuoteDispatch  = "quote_dispatch"
	TaskSQLMaintenance = "sql_maintenance"
)

const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultBreakerMaxFailures   = 5
	DefaultBreakerResetInterval = 15 * time.Second

	DefaultPrefsPath = "user_data.json"

	DefaultDatabasePath      = "quotebot.db"
	DefaultDatabaseRetention = 30 * 24 * time.Hour

	DefaultDeliveryTimeout         = 10 * time.Second
	DefaultMaxConcurrentDeliveries = 8
	// Well under a minute so every HH:MM is observed at least once.
	DefaultDispatchInterval    = 20 * time.Second
	DefaultMaintenanceSchedule = "0 4 * * *"

	DefaultMetricsAddr = ":9090"
)

var DefaultMessages = MessagesConfig{
	Welcome: "Hi Welcome! You will receive a daily quote. Set your preferred time with " +
		"/settime <HH:MM> and category with /setcategory <category>.",
	Help: "Commands:\n" +
		"/start - subscribe to a daily quote\n" +
		"/settime <HH:MM> - set the delivery time (24-hour)\n" +
		"/setcategory <category> - set the quote category\n" +
		"/quote <category> - get a quote now\n" +
		"/youtube - channel link",
	TimeSet:         "Your preferred time has been set to %s.",
	TimeInvalid:     "Please use the format HH:MM (24-hour format).",
	TimeMissing:     "Please provide a time in HH:MM format.",
	CategorySet:     "Your preferred quote category has been set to %s.",
	CategoryInvalid: "Available categories are: %s.",
	CategoryMissing: "Please provide a category (%s).",
	QuoteMissing:    "Please specify a category (%s).",
	QuoteNotFound:   "Category not found.",
	YouTube:         "Check out my YouTube channel: [MindWARRIOR](https://www.youtube.com/@Mind4WORRIOR)",
	GeneralError:    "Something went wrong, please try again later.",
}

var DefaultCommands = []CommandConfig{
	{Command: "start", Description: "Subscribe to a daily quote"},
	{Command: "settime", Description: "Set delivery time, e.g. /settime 08:30"},
	{Command: "setcategory", Description: "Set quote category"},
	{Command: "quote", Description: "Get a quote now, e.g. /quote life"},
	{Command: "youtube", Description: "Channel link"},
	{Command: "help", Description: "Show available commands"},
}

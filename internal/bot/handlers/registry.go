package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/quotebot/internal/commands"
)

// CommandNames lists the commands routed to the command service.
var CommandNames = []string{
	commands.Start,
	commands.SetTime,
	commands.SetCategory,
	commands.Quote,
	commands.YouTube,
	commands.Help,
}

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns the handler of every bot command keyed by "/name".
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler, len(CommandNames))
	mw := []tgbot.Middleware{Recover(deps)}

	for _, name := range CommandNames {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     NewCommandHandler(deps, name),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}
	return handlers
}

// Package handlers contains the Telegram command handlers, their registration and
// middleware.
package handlers

import (
	"context"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover creates a middleware that turns a panic in a handler into a logged error and a
// general error reply, so one bad update cannot stop the listener.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log := deps.Logger.With("middleware", "Recover")
				log.ErrorContext(ctx, "Handler panicked", "panic", r, "update_id", update.ID, "stack", string(debug.Stack()))

				if update.Message == nil || bot == nil {
					return
				}
				_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   deps.Config.Messages.GeneralError,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send error message", "error", err, "chat_id", update.Message.Chat.ID)
				}
			}()

			next(ctx, bot, update)
		}
	}
}

package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/quotebot/internal/commands"
)

// NewCommandHandler returns a handler running the named command for the sending chat.
func NewCommandHandler(deps HandlerDeps, name string) bot.HandlerFunc {
	return commandHandler{deps: deps, name: name}.Handle
}

// commandHandler adapts a Telegram update to a commands.Service call.
type commandHandler struct {
	deps HandlerDeps
	name string
}

func (h commandHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	if update.Message == nil {
		log.WarnContext(ctx, "Command handler received update without message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	cmd, _ := commands.Parse(update.Message.Text)
	log.InfoContext(ctx, "Handling command", "chat_id", chatID, "args", len(cmd.Args))

	reply := h.deps.Commands.Execute(ctx, h.name, chatID, cmd.Args)
	sendReply(ctx, b, log, chatID, reply)
}

// sendReply sends exactly one message to chatID, logging failures.
func sendReply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, reply commands.Reply) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: reply.Text}
	if reply.Markdown {
		params.ParseMode = models.ParseModeMarkdownV1
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
		return
	}
	log.DebugContext(ctx, "Reply sent", "chat_id", chatID)
}

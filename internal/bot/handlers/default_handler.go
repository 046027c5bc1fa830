package handlers

import (
	"context"
	"slices"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/quotebot/internal/commands"
)

const privateChat = "private"

// NewDefaultHandler returns the handler for updates no command route matched. It runs
// known commands addressed as /cmd@botname, answers other private messages with help
// and ignores the rest.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

type defaultHandler struct {
	deps HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "default")
	chatID := update.Message.Chat.ID

	cmd, ok := commands.Parse(update.Message.Text)
	if ok && !cmd.AddressedTo(h.botUsername()) {
		log.DebugContext(ctx, "Ignoring command for another bot", "chat_id", chatID, "addressee", cmd.Addressee)
		return
	}
	if ok && slices.Contains(CommandNames, cmd.Name) {
		log.InfoContext(ctx, "Handling addressed command", "chat_id", chatID, "command", cmd.Name)
		sendReply(ctx, b, log, chatID, h.deps.Commands.Execute(ctx, cmd.Name, chatID, cmd.Args))
		return
	}

	if update.Message.Chat.Type != privateChat {
		return
	}
	sendReply(ctx, b, log, chatID, h.deps.Commands.Help())
}

// botUsername is the username reported by getMe, or "" before it is known. An empty
// name matches no addressee, so addressed commands are ignored until then.
func (h defaultHandler) botUsername() string {
	if h.deps.Config == nil || h.deps.Config.Telegram.BotInfo == nil {
		return ""
	}
	return h.deps.Config.Telegram.BotInfo.Username
}

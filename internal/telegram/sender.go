package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
)

// ErrChatUnreachable marks send failures caused by the recipient chat (bot blocked,
// chat deleted, bad chat id) rather than by the Bot API itself.
var ErrChatUnreachable = errors.New("chat unreachable")

// Sender delivers scheduled quotes through the bot API.
type Sender struct {
	bot *bot.Bot
}

// NewSender returns a Sender using b.
func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

// Deliver sends text to chatID as a plain message.
func (s *Sender) Deliver(ctx context.Context, chatID int64, text string) error {
	if _, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		if chatLevel(err) {
			return fmt.Errorf("send message to chat %d: %w: %w", chatID, ErrChatUnreachable, err)
		}
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// IsChatError reports whether err concerns a single chat and says nothing about the
// health of the Bot API.
func IsChatError(err error) bool {
	return errors.Is(err, ErrChatUnreachable)
}

func chatLevel(err error) bool {
	return errors.Is(err, bot.ErrorForbidden) ||
		errors.Is(err, bot.ErrorBadRequest) ||
		errors.Is(err, bot.ErrorNotFound)
}

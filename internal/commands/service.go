// Package commands implements the bot commands independently of the chat transport.
// Each command validates its arguments, performs at most one preference store operation
// and yields exactly one reply.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/edgard/quotebot/internal/config"
	"github.com/edgard/quotebot/internal/metrics"
	"github.com/edgard/quotebot/internal/prefs"
	"github.com/edgard/quotebot/internal/quotes"
)

// Command names.
const (
	Start       = "start"
	SetTime     = "settime"
	SetCategory = "setcategory"
	Quote       = "quote"
	YouTube     = "youtube"
	Help        = "help"
)

// Reply is the single message a command answers with.
type Reply struct {
	Text     string
	Markdown bool
}

// Store is the subset of the preference store used by commands.
type Store interface {
	GetOrCreate(ctx context.Context, chatID int64) (prefs.Record, bool, error)
	SetTime(ctx context.Context, chatID int64, value string) (prefs.Record, error)
	SetCategory(ctx context.Context, chatID int64, value string) (prefs.Record, error)
}

// Service executes commands for a chat.
type Service struct {
	store   Store
	catalog *quotes.Catalog
	msgs    config.MessagesConfig
	logger  *slog.Logger
}

// NewService creates a command service.
func NewService(store Store, catalog *quotes.Catalog, msgs config.MessagesConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if catalog == nil {
		catalog = quotes.Default()
	}
	return &Service{
		store:   store,
		catalog: catalog,
		msgs:    msgs,
		logger:  logger.With("component", "commands"),
	}
}

// Execute runs the named command. Unknown names get the help text.
func (s *Service) Execute(ctx context.Context, name string, chatID int64, args []string) Reply {
	metrics.IncCommand(name)

	switch name {
	case Start:
		return s.Start(ctx, chatID)
	case SetTime:
		return s.SetTime(ctx, chatID, args)
	case SetCategory:
		return s.SetCategory(ctx, chatID, args)
	case Quote:
		return s.Quote(args)
	case YouTube:
		return s.YouTube()
	default:
		return s.Help()
	}
}

// Start registers the chat with default preferences when it has none.
func (s *Service) Start(ctx context.Context, chatID int64) Reply {
	if _, _, err := s.store.GetOrCreate(ctx, chatID); err != nil {
		return s.storeFailure(ctx, Start, chatID, err)
	}
	return Reply{Text: s.msgs.Welcome}
}

// SetTime updates the delivery time from the first argument.
func (s *Service) SetTime(ctx context.Context, chatID int64, args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: s.msgs.TimeMissing}
	}

	rec, err := s.store.SetTime(ctx, chatID, args[0])
	switch {
	case errors.Is(err, prefs.ErrInvalidFormat):
		return Reply{Text: s.msgs.TimeInvalid}
	case err != nil:
		return s.storeFailure(ctx, SetTime, chatID, err)
	}
	return Reply{Text: fmt.Sprintf(s.msgs.TimeSet, rec.Time)}
}

// SetCategory updates the preferred category from the first argument.
func (s *Service) SetCategory(ctx context.Context, chatID int64, args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: fmt.Sprintf(s.msgs.CategoryMissing, s.categoryList())}
	}

	rec, err := s.store.SetCategory(ctx, chatID, args[0])
	switch {
	case errors.Is(err, prefs.ErrUnknownCategory):
		return Reply{Text: fmt.Sprintf(s.msgs.CategoryInvalid, s.categoryList())}
	case err != nil:
		return s.storeFailure(ctx, SetCategory, chatID, err)
	}
	return Reply{Text: fmt.Sprintf(s.msgs.CategorySet, rec.Category)}
}

// Quote returns a random quote from the category named by the first argument.
func (s *Service) Quote(args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: fmt.Sprintf(s.msgs.QuoteMissing, s.categoryList())}
	}

	q, err := s.catalog.RandomQuote(args[0])
	if err != nil {
		return Reply{Text: s.msgs.QuoteNotFound}
	}
	return Reply{Text: q}
}

// YouTube returns the channel link.
func (s *Service) YouTube() Reply {
	return Reply{Text: s.msgs.YouTube, Markdown: true}
}

// Help lists the commands.
func (s *Service) Help() Reply {
	return Reply{Text: s.msgs.Help}
}

func (s *Service) categoryList() string {
	return strings.Join(s.catalog.Categories(), ", ")
}

func (s *Service) storeFailure(ctx context.Context, op string, chatID int64, err error) Reply {
	metrics.IncStoreError(op)
	s.logger.ErrorContext(ctx, "Preference store operation failed", "command", op, "chat_id", chatID, "error", err)
	return Reply{Text: s.msgs.GeneralError}
}

package telegram_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"

	"github.com/edgard/quotebot/internal/bot/handlers"
	"github.com/edgard/quotebot/internal/config"
	"github.com/edgard/quotebot/internal/telegram"
)

type apiCall struct {
	method string
	form   map[string]string
}

// fakeAPI is a minimal Bot API server recording every call.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	status int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	_ = r.ParseMultipartForm(1 << 20)
	form := make(map[string]string)
	for k, v := range r.Form {
		form[k] = v[0]
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"ok":false,"error_code":%d,"description":"%s"}`, status, http.StatusText(status))
		return
	}
	switch method {
	case "setMyCommands":
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	}
}

func (f *fakeAPI) last(t *testing.T) apiCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no API calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func newBot(t *testing.T, api *fakeAPI) *bot.Bot {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := telegram.NewTelegramBot("123456789:test-token", nil, bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("NewTelegramBot() error = %v", err)
	}
	return b
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := telegram.NewTelegramBot("", nil); err == nil {
		t.Error("NewTelegramBot(\"\") error = nil")
	}
}

func TestSenderDeliver(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	sender := telegram.NewSender(newBot(t, api))

	if err := sender.Deliver(context.Background(), 123, "Get busy living or get busy dying."); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	call := api.last(t)
	if call.method != "sendMessage" || call.form["chat_id"] != "123" || call.form["text"] != "Get busy living or get busy dying." {
		t.Errorf("call = %+v", call)
	}
}

func TestSenderDeliverFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		chatError bool
	}{
		{name: "blocked by user", status: http.StatusForbidden, chatError: true},
		{name: "chat not found", status: http.StatusBadRequest, chatError: true},
		{name: "api outage", status: http.StatusBadGateway, chatError: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sender := telegram.NewSender(newBot(t, &fakeAPI{status: tc.status}))
			err := sender.Deliver(context.Background(), 123, "hi")
			if err == nil {
				t.Fatal("Deliver() error = nil")
			}
			if got := telegram.IsChatError(err); got != tc.chatError {
				t.Errorf("IsChatError(%v) = %v, want %v", err, got, tc.chatError)
			}
		})
	}
}

func TestPublishCommands(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	if err := telegram.PublishCommands(context.Background(), newBot(t, api), config.DefaultCommands); err != nil {
		t.Fatalf("PublishCommands() error = %v", err)
	}
	call := api.last(t)
	if call.method != "setMyCommands" || !strings.Contains(call.form["commands"], `"setcategory"`) {
		t.Errorf("call = %+v", call)
	}
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	b := newBot(t, &fakeAPI{})
	deps := handlers.HandlerDeps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Config: &config.Config{}}

	if err := telegram.RegisterHandlers(nil, nil, nil); err == nil {
		t.Error("RegisterHandlers(nil bot) error = nil")
	}
	if err := telegram.RegisterHandlers(b, nil, handlers.RegisterAllCommands(deps)); err != nil {
		t.Errorf("RegisterHandlers() error = %v", err)
	}
}

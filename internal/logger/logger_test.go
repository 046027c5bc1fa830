package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "/start", maxLen: 50, want: "/start"},
		{name: "exact", input: "abcde", maxLen: 5, want: "abcde"},
		{name: "long", input: "abcdefghij", maxLen: 6, want: "abc..."},
		{name: "tiny limit", input: "abcdef", maxLen: 2, want: "..."},
		{name: "multibyte", input: "ééééééé", maxLen: 5, want: "éé..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tc.input, tc.maxLen); got != tc.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONOutputAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn", true)
	log.Info("hidden")
	log.Warn("shown", "chat_id", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "shown" || entry["chat_id"] != float64(1) {
		t.Errorf("entry = %v", entry)
	}
}

func TestGocronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewGocronLogger(New(&buf, "debug", false)).Error("job failed", "job", "quote_dispatch")

	out := buf.String()
	if !strings.Contains(out, "component=gocron") || !strings.Contains(out, "job=quote_dispatch") {
		t.Errorf("output = %q", out)
	}
}

package commands_test

import (
	"slices"
	"testing"

	"github.com/edgard/quotebot/internal/commands"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input         string
		wantName      string
		wantAddressee string
		wantArgs      []string
		wantOK        bool
	}{
		{input: "/start", wantName: "start", wantArgs: []string{}, wantOK: true},
		{input: "/settime 14:30", wantName: "settime", wantArgs: []string{"14:30"}, wantOK: true},
		{
			input:    "/SetCategory@QuoteBot  Love  extra",
			wantName: "setcategory", wantAddressee: "QuoteBot",
			wantArgs: []string{"Love", "extra"}, wantOK: true,
		},
		{input: "  /quote\tlife ", wantName: "quote", wantArgs: []string{"life"}, wantOK: true},
		{input: "hello there"},
		{input: ""},
		{input: "/"},
		{input: "/@bot"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			cmd, ok := commands.Parse(tc.input)
			if ok != tc.wantOK || cmd.Name != tc.wantName || cmd.Addressee != tc.wantAddressee {
				t.Fatalf("Parse(%q) = %+v, %v", tc.input, cmd, ok)
			}
			if tc.wantOK && !slices.Equal(cmd.Args, tc.wantArgs) {
				t.Errorf("Parse(%q) args = %q, want %q", tc.input, cmd.Args, tc.wantArgs)
			}
		})
	}
}

func TestCommandAddressedTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "/quote life", want: true},
		{input: "/quote@QuoteBot life", want: true},
		{input: "/quote@quotebot life", want: true},
		{input: "/quote@SomeOtherBot life", want: false},
	}
	for _, tc := range tests {
		cmd, ok := commands.Parse(tc.input)
		if !ok {
			t.Fatalf("Parse(%q) failed", tc.input)
		}
		if got := cmd.AddressedTo("QuoteBot"); got != tc.want {
			t.Errorf("%q AddressedTo(QuoteBot) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

package quotes_test

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/edgard/quotebot/internal/quotes"
)

func TestRandomQuoteMembership(t *testing.T) {
	t.Parallel()

	cat := quotes.Default()
	for _, name := range cat.Categories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			list, err := cat.Quotes(name)
			if err != nil {
				t.Fatalf("Quotes(%q) error = %v", name, err)
			}

			seen := make(map[string]bool)
			for range 500 {
				q, err := cat.RandomQuote(name)
				if err != nil {
					t.Fatalf("RandomQuote(%q) error = %v", name, err)
				}
				if !slices.Contains(list, q) {
					t.Fatalf("RandomQuote(%q) = %q, not in category", name, q)
				}
				seen[q] = true
			}
			if len(seen) != len(list) {
				t.Errorf("RandomQuote(%q) reached %d of %d quotes", name, len(seen), len(list))
			}
		})
	}
}

func TestRandomQuoteNormalizesCategory(t *testing.T) {
	t.Parallel()

	cat := quotes.Default()
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "lower", input: "love"},
		{name: "upper", input: "LOVE"},
		{name: "mixed with spaces", input: "  MoTiVaTiOnAl "},
		{name: "unknown", input: "loveletters", wantErr: quotes.ErrNotFound},
		{name: "empty", input: "", wantErr: quotes.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			q, err := cat.RandomQuote(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("RandomQuote(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
			if tc.wantErr == nil && q == "" {
				t.Errorf("RandomQuote(%q) returned empty quote", tc.input)
			}
			if got := cat.Has(tc.input); got != (tc.wantErr == nil) {
				t.Errorf("Has(%q) = %v", tc.input, got)
			}
		})
	}
}

func TestDefaultCategoriesOrder(t *testing.T) {
	t.Parallel()

	want := []string{"motivational", "inspirational", "life", "love"}
	if got := quotes.Default().Categories(); !slices.Equal(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestNewDropsEmptyAndDuplicateCategories(t *testing.T) {
	t.Parallel()

	cat := quotes.New(
		[]string{"Stoic", "empty", "stoic"},
		map[string][]string{
			"Stoic": {"We suffer more in imagination than in reality."},
			"stoic": {"ignored"},
		},
		rand.NewPCG(1, 2),
	)

	if got := cat.Categories(); !slices.Equal(got, []string{"stoic"}) {
		t.Fatalf("Categories() = %v", got)
	}
	q, err := cat.RandomQuote("STOIC")
	if err != nil || q != "We suffer more in imagination than in reality." {
		t.Errorf("RandomQuote() = %q, %v", q, err)
	}
}

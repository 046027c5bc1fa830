// Package quotes holds the static quote catalog used for daily and on-demand quotes.
package quotes

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
)

// ErrNotFound is returned when a quote is requested for a category the catalog does not know.
var ErrNotFound = errors.New("category not found")

// Category identifiers, in the order they are presented to users.
const (
	Motivational  = "motivational"
	Inspirational = "inspirational"
	Life          = "life"
	Love          = "love"
)

// Catalog is an immutable mapping of category to quotes. It is safe for concurrent use.
type Catalog struct {
	order  []string
	quotes map[string][]string

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// New builds a catalog from ordered categories. Category keys are normalized and
// categories with no quotes are dropped.
func New(categories []string, quotes map[string][]string, src rand.Source) *Catalog {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	c := &Catalog{
		quotes: make(map[string][]string, len(categories)),
		rnd:    rand.New(src),
	}
	for _, name := range categories {
		list := quotes[name]
		key := Normalize(name)
		if len(list) == 0 || key == "" {
			continue
		}
		if _, dup := c.quotes[key]; dup {
			continue
		}
		c.order = append(c.order, key)
		c.quotes[key] = append([]string(nil), list...)
	}
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog with the built-in quotes.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = New(builtinOrder, builtinQuotes, nil)
	})
	return defaultCatalog
}

// Normalize lower-cases and trims a category identifier.
func Normalize(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Has reports whether category (in any case) is a catalog key.
func (c *Catalog) Has(category string) bool {
	_, ok := c.quotes[Normalize(category)]
	return ok
}

// Categories returns the category keys in display order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.order...)
}

// Quotes returns a copy of the quotes stored for category.
func (c *Catalog) Quotes(category string) ([]string, error) {
	list, ok := c.quotes[Normalize(category)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), list...), nil
}

// RandomQuote returns a uniformly chosen quote from category.
func (c *Catalog) RandomQuote(category string) (string, error) {
	list, ok := c.quotes[Normalize(category)]
	if !ok {
		return "", ErrNotFound
	}

	c.mu.Lock()
	i := c.rnd.IntN(len(list))
	c.mu.Unlock()

	return list[i], nil
}

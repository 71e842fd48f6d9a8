package types

import (
	"fmt"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator orders strings alphabetically for a locale. It is safe for
// concurrent use.
type Collator struct {
	mu     sync.Mutex
	c      *collate.Collator
	locale language.Tag
}

// NewCollator creates a case- and accent-aware collator for the given BCP 47
// locale, e.g. "en" or "de-CH".
func NewCollator(locale string) (*Collator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Collator{c: collate.New(tag), locale: tag}, nil
}

// Locale returns the collator's language tag.
func (c *Collator) Locale() string {
	return c.locale.String()
}

// Compare returns -1, 0 or +1 depending on the alphabetical order of a and b.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}

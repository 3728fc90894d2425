// Package filter computes the induced subgraph shown for a search term.
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// apostrophes maps typographic apostrophes to a plain one.
var apostrophes = strings.NewReplacer(
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
	"‛", "'", // single high-reversed-9 quotation mark
	"′", "'", // prime
	"＇", "'", // fullwidth apostrophe
	"ʼ", "'", // modifier letter apostrophe
)

// Normalize folds s for comparison: case-folded, diacritics stripped,
// apostrophes unified, and everything except letters, digits, apostrophes
// and spaces removed.
func Normalize(s string) string {
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold())

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}

	folded = apostrophes.Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))

	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return b.String()
}

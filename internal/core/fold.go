package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// FoldText is the normalization applied to both configured keywords and
// recognized text: compatibility folding (NFKC), Unicode lower-casing and
// collapsing of every whitespace run into one space, trimmed at both ends.
func FoldText(text string) string {
	folded := norm.NFKC.String(text)
	// cases.Caser keeps state between calls and is not safe for concurrent use
	lowered := cases.Lower(language.Und).String(folded)

	var b strings.Builder
	b.Grow(len(lowered))
	space := false
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

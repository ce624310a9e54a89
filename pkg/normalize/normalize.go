// Package normalize prepares free-form phrases for matching. Every matcher
// layer compares normalized text only.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// quote runes stripped from the edges of a phrase. Covers straight quotes and
// the typographic doubles that speech-to-text and messenger clients emit.
var quoteRunes = map[rune]bool{
	'"': true, '\'': true, '`': true,
	'«': true, '»': true,
	'“': true, // left double quotation mark
	'”': true, // right double quotation mark
	'„': true, // double low-9 quotation mark
}

var folder = cases.Fold()

// Phrase normalizes a phrase: trims whitespace and quote characters at the
// edges, case-folds (Unicode folding, so Cyrillic folds correctly), and
// collapses internal whitespace runs to single spaces. Empty and
// whitespace-only input normalizes to "". Idempotent.
func Phrase(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || quoteRunes[r]
	})
	if s == "" {
		return ""
	}
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits a normalized phrase into its word tokens.
func Tokens(s string) []string {
	return strings.Fields(Phrase(s))
}

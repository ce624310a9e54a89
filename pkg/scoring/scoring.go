// Package scoring implements the string similarity measures the matcher
// layers on top of. All scores are on a 0-100 scale. The exact numeric values
// are not a contract; relative ordering against the cutoffs is.
package scoring

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer provides string comparison algorithms for phrase matching.
type Scorer struct{}

// NewScorer creates a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Ratio is the whole-string similarity between two strings, based on
// rune-level edit distance.
func (s *Scorer) Ratio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}

	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	longest := la
	if lb > longest {
		longest = lb
	}
	return 100 * (1 - float64(dist)/float64(longest))
}

// PartialRatio scores the shorter string against every same-length rune
// window of the longer one and returns the best ratio. Tolerates one phrase
// being embedded in the other.
func (s *Scorer) PartialRatio(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(shorter) == len(longer) {
		return s.Ratio(string(shorter), string(longer))
	}

	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := string(longer[i : i+len(shorter)])
		if r := s.Ratio(string(shorter), window); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio tokenizes both strings, sorts the tokens, and compares the
// rejoined forms. Order-independent: "цб филе" and "филе цб" score 100.
func (s *Scorer) TokenSortRatio(a, b string) float64 {
	return s.Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the token intersection against each side's
// remainder, fuzzywuzzy style. Very tolerant of partial overlap: one side
// fully contained in the other scores 100 even when the rest differs. That
// over-rewarding is exactly what the matcher's false-positive guard exists
// to rein in.
func (s *Scorer) TokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, diffA, diffB []string
	for tok := range ta {
		if tb[tok] {
			common = append(common, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(diffA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(diffB, " "))

	best := s.Ratio(base, withA)
	if r := s.Ratio(base, withB); r > best {
		best = r
	}
	if r := s.Ratio(withA, withB); r > best {
		best = r
	}
	return best
}

// WeightedRatio is the general-purpose whole-string measure used against
// catalog names: the best of plain ratio and token-sort ratio, with a
// scaled partial ratio mixed in when the lengths diverge enough for
// substring containment to matter.
func (s *Scorer) WeightedRatio(a, b string) float64 {
	best := s.Ratio(a, b)
	if r := s.TokenSortRatio(a, b) * 0.95; r > best {
		best = r
	}

	if lr := s.LengthRatio(a, b); lr > 0 && lr < 0.667 {
		if r := s.PartialRatio(a, b) * 0.9; r > best {
			best = r
		}
	}
	return best
}

// SharedTokens counts distinct tokens present in both strings.
func (s *Scorer) SharedTokens(a, b string) int {
	ta := tokenSet(a)
	tb := tokenSet(b)
	n := 0
	for tok := range ta {
		if tb[tok] {
			n++
		}
	}
	return n
}

// LengthRatio is the shorter rune length divided by the longer, in (0, 1].
// Zero when either string is empty.
func (s *Scorer) LengthRatio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

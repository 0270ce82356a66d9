// Package moderation masks configured words in outgoing text before it
// enters the message log. This is a local courtesy filter on the
// sender's side, not server-side moderation.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Filter matches configured words with an Aho-Corasick automaton over
// a normalized view of the text (lowercased, punctuation and spacing
// stripped), then masks the matching runes in the original.
type Filter struct {
	machine *goahocorasick.Machine
	mask    rune
}

func NewFilter(words []string, mask rune) (Filter, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if normalized := normalize([]rune(word)); len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return Filter{}, err
	}
	return Filter{machine: machine, mask: mask}, nil
}

// Apply returns the masked text and whether anything was masked.
func (f Filter) Apply(text string) (string, bool) {
	original := []rune(text)
	normalized, origIdx := normalizeMapped(original)
	if len(normalized) == 0 {
		return text, false
	}

	matches := f.machine.MultiPatternSearch(normalized, false)
	if len(matches) == 0 {
		return text, false
	}

	for _, match := range matches {
		start := match.Pos
		end := start + len(match.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = f.mask
		}
	}
	return string(original), true
}

// normalizeMapped produces the searchable form of the text plus, for
// every kept rune, its index in the original.
func normalizeMapped(original []rune) ([]rune, []int) {
	normalized := make([]rune, 0, len(original))
	origIdx := make([]int, 0, len(original))
	for i, r := range original {
		if skippable(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}

func normalize(input []rune) []rune {
	out, _ := normalizeMapped(input)
	return out
}

func skippable(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Package moderation censors banned words in chat messages. Matching runs
// over a normalized view of the text (lowercased, noise characters removed,
// common substitutions undone) so that spacing and punctuation tricks do not
// defeat the word list, while the replacement happens on the original runes
// so the visible message keeps its shape.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

const maskRune = '*'

type Filter struct {
	matcher *goahocorasick.Machine
}

// runeMapping links every rune of the normalized text back to its position
// in the original string.
type runeMapping struct {
	normalized []rune
	origIdx    []int
}

// NewFilter builds the Aho-Corasick automaton over the normalized banned
// words. An empty word list yields a pass-through filter.
func NewFilter(bannedWords []string) (*Filter, error) {
	if len(bannedWords) == 0 {
		return &Filter{}, nil
	}

	patterns := make([][]rune, 0, len(bannedWords))
	for _, word := range bannedWords {
		normalized := normalizeRunes([]rune(word))
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}
	if len(patterns) == 0 {
		return &Filter{}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{matcher: m}, nil
}

// Censor masks every banned word occurrence and reports which normalized
// words were found. The returned string has the same rune length as the
// input.
func (f *Filter) Censor(original string) (string, []string) {
	if f.matcher == nil {
		return original, nil
	}

	mapping := normalizeWithMapping(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := f.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	found := make([]string, 0, len(spans))
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		// Mask the whole original span, including any noise characters the
		// normalization skipped in the middle of the word.
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = maskRune
		}
	}
	return string(origRunes), found
}

func normalizeWithMapping(input string) runeMapping {
	origRunes := []rune(input)
	mapping := runeMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune undoes the usual digit-for-letter substitutions.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise drops separators, symbols, and combining marks (Arabic diacritics
// and tatweel included) before matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) ||
		unicode.IsSymbol(r) || unicode.Is(unicode.Mn, r) || r == 'ـ'
}

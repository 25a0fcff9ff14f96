package views

import (
	"strings"
	"unicode"
)

// sanitizeForTerminal flattens text into one table row that tcell can
// measure: line breaks and tabs become spaces, other control characters are
// dropped, and emoji joiners, skin tones and variation selectors are removed
// so the base glyph keeps its two-cell width.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r), isEmojiModifier(r):
			return -1
		}
		return r
	}, s)
}

func isEmojiModifier(r rune) bool {
	return (r >= 0x1F3FB && r <= 0x1F3FF) ||
		r == 0x200D ||
		unicode.Is(unicode.Variation_Selector, r)
}

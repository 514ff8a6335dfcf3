package render

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal drops codepoints that tcell cannot lay out in a fixed
// number of cells: skin tone modifiers, the zero width joiner and variation
// selectors. A composed emoji degrades to its base glyph.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !dropRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func dropRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}

package lexer

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// identifierScripts is the fixed set of code-point ranges spec.md §4.1
// allows as identifier-start characters beyond ASCII letters and '_':
// Latin extended, Greek, Cyrillic, Hebrew, Arabic, CJK basic, Hiragana,
// Katakana. Built with rangetable.Merge rather than a hand-rolled table of
// unicode.RangeTable literals, following the pack's own precedent of
// reaching for golang.org/x/text for Unicode range handling in a scanner.
var identifierScripts = rangetable.Merge(
	unicode.Scripts["Latin"],
	unicode.Scripts["Greek"],
	unicode.Scripts["Cyrillic"],
	unicode.Scripts["Hebrew"],
	unicode.Scripts["Arabic"],
	unicode.Scripts["Han"],
	unicode.Scripts["Hiragana"],
	unicode.Scripts["Katakana"],
)

// isIdentifierStart reports whether r may begin a Kozi identifier.
func isIdentifierStart(r rune) bool {
	if r == '_' {
		return true
	}
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
		return true
	}
	if r < utf8RuneSelf {
		return false
	}
	return unicode.Is(identifierScripts, r)
}

// isIdentifierContinue reports whether r may continue a Kozi identifier:
// any start character, or an ASCII digit (spec.md §4.1).
func isIdentifierContinue(r rune) bool {
	if r >= '0' && r <= '9' {
		return true
	}
	return isIdentifierStart(r)
}

const utf8RuneSelf = 0x80

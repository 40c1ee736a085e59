package mediatype

import "strings"

// CharClass reports whether a single byte belongs to a character class.
// Header values are scanned byte-wise; anything above 0x7F never matches
// the ASCII-based classes defined here.
type CharClass func(c byte) bool

// Negate returns the complement of the class.
func (cc CharClass) Negate() CharClass {
	return func(c byte) bool { return !cc(c) }
}

// MatchesAll reports whether every byte of s belongs to the class.
// The empty string matches vacuously.
func (cc CharClass) MatchesAll(s string) bool {
	for i := 0; i < len(s); i++ {
		if !cc(s[i]) {
			return false
		}
	}
	return true
}

// indexOutside returns the index of the first byte at or after start that is
// not in the class, or len(s) if every remaining byte matches.
func (cc CharClass) indexOutside(s string, start int) int {
	for i := start; i < len(s); i++ {
		if !cc(s[i]) {
			return i
		}
	}
	return len(s)
}

// Is returns a class matching exactly one byte.
func Is(b byte) CharClass {
	return func(c byte) bool { return c == b }
}

// AnyOf returns a class matching any byte contained in chars.
func AnyOf(chars string) CharClass {
	return func(c byte) bool { return strings.IndexByte(chars, c) >= 0 }
}

// tspecials are the RFC 2045 separators that may not appear in a token.
const tspecials = "()<>@,;:\\\"/[]?="

var (
	// ASCII matches 0x00 through 0x7F.
	ASCII CharClass = func(c byte) bool { return c <= 0x7F }

	// Control matches the C0 controls and DEL.
	Control CharClass = func(c byte) bool { return c < 0x20 || c == 0x7F }

	// Token matches RFC 7230 tchar: visible ASCII except separators.
	Token CharClass = func(c byte) bool {
		return c > 0x20 && c < 0x7F && strings.IndexByte(tspecials, c) < 0
	}

	// QuotedText matches the bytes allowed unescaped inside a quoted-string.
	QuotedText CharClass = func(c byte) bool {
		return c <= 0x7F && c != '"' && c != '\\' && c != '\r'
	}

	// ParamValue matches the bytes a parameter value may hold: HTAB, SP and
	// visible ASCII.
	ParamValue CharClass = func(c byte) bool { return c == '\t' || (c >= 0x20 && c < 0x7F) }

	// LinearWhitespace matches SP, HTAB, CR and LF.
	LinearWhitespace = AnyOf(" \t\r\n")
)

// IsUpper reports whether c is one of 'A' through 'Z'.
func IsUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// IsLower reports whether c is one of 'a' through 'z'.
func IsLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// ToLower folds ASCII upper-case letters and leaves every other byte,
// including non-ASCII, untouched. The input is returned as-is when no byte
// needs folding.
func ToLower(s string) string {
	for i := 0; i < len(s); i++ {
		if IsUpper(s[i]) {
			b := []byte(s)
			for ; i < len(b); i++ {
				if IsUpper(b[i]) {
					b[i] ^= 0x20
				}
			}
			return string(b)
		}
	}
	return s
}

package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Capitalize uppercases the first rune of s and lowercases the rest,
// e.g. "zANE" becomes "Zane". Suspect names are stored lowercased on disk
// but presented capitalized to the player.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

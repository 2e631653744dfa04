package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString collapses whitespace runs, trims, and caps the result at
// maxRunes characters without splitting a multi-byte rune.
func SanitizeString(input string, maxRunes int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(cleaned) <= maxRunes {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxRunes]))
}

package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString collapses whitespace and caps the result at maxLen runes,
// so accented product names are never cut inside a character.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	return strings.TrimSpace(string([]rune(cleaned)[:maxLen]))
}

// Package text provides input normalization for speech synthesis.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Punctuation variants unified before synthesis.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
	ellipsis     = "..."
	hyphen       = "-"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeForSpeech prepares raw text for the speech engine: exotic dashes
// and the ellipsis character are unified to ASCII forms, control characters
// are dropped, and runs of whitespace collapse to a single space. The result
// is trimmed; an all-whitespace input normalizes to the empty string.
func NormalizeForSpeech(input string) string {
	replacer := strings.NewReplacer(
		emDash, hyphen,
		enDash, hyphen,
		figureDash, hyphen,
		ellipsisChar, ellipsis,
	)

	normalized := replacer.Replace(input)

	normalized = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}

		return r
	}, normalized)

	normalized = whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

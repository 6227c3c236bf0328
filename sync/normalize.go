// ABOUTME: Name normalisation for fuzzy entity matching
// ABOUTME: Reduces free-text names to lowercase ASCII letters and digits
package sync

import "strings"

// Normalize lower-cases text and drops every rune that is not an ASCII letter or digit.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding whitespace and converts the name to Unicode
// NFC, so "Maíz" typed with a combining accent matches the precomposed form.
// Case is preserved: name matching is case-sensitive.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

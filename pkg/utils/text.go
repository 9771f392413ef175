// Package utils holds small helpers shared by the voxa packages: logger construction,
// vector normalization and display truncation.
package utils

import "unicode/utf8"

// Truncate returns s cut to at most maxLen bytes on a rune boundary, with "..." appended
// if anything was cut. maxLen <= 0 returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

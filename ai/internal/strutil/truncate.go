// Package strutil provides string helpers shared by the ai packages.
package strutil

// Truncate cuts a string to maxLen runes, appending an ellipsis when it had
// to cut. Rune-level slicing keeps multi-byte characters intact. A
// non-positive maxLen returns the empty string.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

package utils

import "github.com/mattn/go-runewidth"

const ellipsis = "..."

// Truncate shortens s to at most maxLen runes, appending "..." when it cuts.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + ellipsis
}

// TruncateWidth shortens s to fit in cols terminal columns, "..."
// included. Wide characters such as 汉字 take two columns.
func TruncateWidth(s string, cols int) string {
	return runewidth.Truncate(s, cols, ellipsis)
}

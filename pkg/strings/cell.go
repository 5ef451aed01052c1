// Package strings holds text helpers for terminal output.
package strings

import (
	"strings"
)

// MinCellWidth is the smallest width TruncateCell honours: one character plus "...".
const MinCellWidth = 4

// TruncateCell makes s a single line of at most maxLen runes. Runs of
// whitespace, including newlines, collapse into one space and a truncated
// value ends in "...".
func TruncateCell(s string, maxLen int) string {
	if maxLen < MinCellWidth {
		maxLen = MinCellWidth
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// JoinCell joins values with ", " and truncates the result like TruncateCell.
func JoinCell(values []string, maxLen int) string {
	return TruncateCell(strings.Join(values, ", "), maxLen)
}

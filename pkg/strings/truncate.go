package strings

import (
	"strings"
)

// DefaultColumnMaxLen is the default width of free-text columns such as
// tag lists in table output.
const DefaultColumnMaxLen = 40

// MinTruncateLen is the minimum maxLen value for Truncate.
// Smaller values would not leave room for one character plus "...".
const MinTruncateLen = 4

// Truncate collapses all whitespace runs in s into single spaces and cuts
// the result to maxLen runes, ending it with "..." when anything was cut.
// maxLen values below MinTruncateLen are clamped.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

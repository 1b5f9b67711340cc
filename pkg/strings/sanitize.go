package strings

import (
	"strings"
)

// SanitizeGroupName maps an arbitrary string to a valid Ansible group name.
//
// The transform is total and pure: the input is lowercased, every rune
// outside [a-z0-9_] becomes an underscore, a leading digit gets an
// underscore prefix, and an empty result becomes "_". Equal inputs always
// produce equal outputs, so group membership is stable across runs.
func SanitizeGroupName(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "_" + out
	}
	return out
}

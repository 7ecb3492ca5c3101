package identity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ValidateName checks that a name is usable as a store key and returns the
// trimmed form. The key space must round-trip any operator-chosen name, so
// path separators and control characters are rejected outright.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	for _, r := range trimmed {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: name contains unsafe character %q", ErrInvalidName, r)
		}
	}
	return trimmed, nil
}

// removeDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Key normalizes a validated name into the store key: lowercase, no
// diacritics, collapsed whitespace. "Jiří Novák" and "jiri novak" identify
// the same slot.
func Key(name string) string {
	key := removeDiacritics(strings.TrimSpace(name))
	key = strings.ToLower(key)
	return strings.Join(strings.Fields(key), " ")
}

package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases value, folds diacritics and joins alphanumeric runs with dashes.
func Slugify(value string) string {
	folded := foldDiacritics(strings.ToLower(strings.TrimSpace(value)))

	var builder strings.Builder
	builder.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingDash = false
			builder.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return builder.String()
}

func foldDiacritics(value string) string {
	// đ has no decomposition, so it is mapped by hand.
	value = strings.NewReplacer("đ", "d", "Đ", "d").Replace(value)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

package reconcile

import (
	"regexp"
	"strings"
	"unicode"
)

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// sanitizeValue walks a decoded JSON value and cleans every string leaf.
// Non-string leaves pass through untouched.
func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = sanitizeValue(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = sanitizeValue(item)
		}
		return val
	case string:
		return sanitizeString(val)
	default:
		return v
	}
}

// sanitizeString strips markup and control sequences and collapses whitespace.
func sanitizeString(s string) string {
	s = tagRegex.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

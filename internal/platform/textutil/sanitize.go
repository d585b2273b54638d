package textutil

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripMarkup removes every HTML element from s and returns plain trimmed text.
// Newlines are kept so multi-line fields such as opening hours survive.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strictPolicy.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// StripMarkupSlice applies StripMarkup to each value and drops entries that end up empty.
func StripMarkupSlice(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if cleaned := StripMarkup(value); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

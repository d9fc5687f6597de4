// Package sanitize cleans free text typed or pasted by users.
//
// Inspection report summaries are usually copied from a browser and arrive
// with stray markup and entities. Text strips all markup with bluemonday's
// strict policy, decodes entities and collapses whitespace, leaving plain
// text that is safe to store and to render in any report format.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is safe for concurrent use once built.
var policy = bluemonday.StrictPolicy()

var whitespace = regexp.MustCompile(`[\s\p{Z}]+`)

// Text returns s without markup, with entities decoded and whitespace collapsed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	stripped := policy.Sanitize(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(html.UnescapeString(stripped), " "))
}

// Texts sanitizes each entry and drops the ones that end up empty.
func Texts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if cleaned := Text(s); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

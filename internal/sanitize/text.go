package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// maxPasses bounds how many levels of entity encoding Text unwraps.
const maxPasses = 8

// Text strips all HTML and surrounding whitespace and returns plain text.
// Use for event names, addresses, performers and descriptions.
//
// The result is raw text: entities are decoded, so "Rock &amp; Roll" is stored
// as "Rock & Roll" and escaping is left to whoever renders it. Markup hidden
// behind entity encoding is decoded and stripped again until nothing changes.
// Input that is still changing after maxPasses keeps bluemonday's escaped form.
func Text(input string) string {
	s := input
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(StrictPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(StrictPolicy.Sanitize(s))
}

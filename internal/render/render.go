// Package render turns a canonical Document into export markup. All
// generators are pure functions over the Document: they filter on the
// per-item selection flag, never mutate their input, and share one set of
// link, mention, and hashtag transforms so output stays consistent across
// formats.
package render

import (
	"regexp"
	"strings"
	"time"
)

const profileBase = "https://x.com/"

// tokenRe matches the three inline constructs every generator linkifies:
// URLs, @handles, and #tags.
var tokenRe = regexp.MustCompile(`https?://[^\s]+|@\w+|#\w+`)

// renderBody applies the shared inline transforms. esc escapes a plain text
// segment for the target markup; link renders one hyperlink in it.
func renderBody(text string, esc func(string) string, link func(href, label string) string) string {
	var b strings.Builder
	pos := 0
	for _, m := range tokenRe.FindAllStringIndex(text, -1) {
		b.WriteString(esc(text[pos:m[0]]))
		token := text[m[0]:m[1]]
		switch {
		case strings.HasPrefix(token, "@"):
			b.WriteString(link(profileBase+token[1:], token))
		case strings.HasPrefix(token, "#"):
			b.WriteString(link(profileBase+"hashtag/"+token[1:], token))
		default:
			b.WriteString(link(token, token))
		}
		pos = m[1]
	}
	b.WriteString(esc(text[pos:]))
	return b.String()
}

// formatTime renders an ISO timestamp as a readable UTC label, passing
// unparseable input through untouched.
func formatTime(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.UTC().Format("Jan 2, 2006 15:04 MST")
}

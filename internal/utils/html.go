package utils

import "strings"

// StripHTMLTags produces a plain-text rendering of an HTML fragment for
// email clients that cannot display HTML. Tags are dropped, block-ish
// boundaries collapse into single spaces.
func StripHTMLTags(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}

	// Collapse runs of whitespace left behind by removed tags
	return strings.Join(strings.Fields(b.String()), " ")
}

package indexer

import (
	"strings"
	"unicode"
)

// Preprocess normalizes text before embedding (trim, collapse whitespace). Passages and
// queries both go through it so identical wording embeds identically.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

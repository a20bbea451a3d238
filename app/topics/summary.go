package topics

import (
	"strings"
	"unicode/utf8"
)

const summaryLimit = 150

// Summary returns the first sentence of the content including its
// terminator, or the whole content if there is no terminator. Summaries
// longer than 150 characters are cut and end with "...".
func Summary(content string) string {
	first := content
	if i := strings.IndexAny(content, "。！？"); i >= 0 {
		_, size := utf8.DecodeRuneInString(content[i:])
		first = content[:i+size]
	}

	if r := []rune(first); len(r) > summaryLimit {
		return string(r[:summaryLimit]) + "..."
	}

	return first
}

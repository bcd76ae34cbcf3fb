package tagging

import (
	"strings"

	"golang.org/x/net/html"
)

// WordCount strips all markup, treating each tag as a word separator, and
// counts the whitespace-separated tokens of the remaining text. Entities are
// decoded first, so "&nbsp;" separates words.
func WordCount(content string) int {
	if content == "" {
		return 0
	}

	var text strings.Builder
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a read error: count what was tokenized.
			return len(strings.Fields(text.String()))
		case html.TextToken:
			text.Write(z.Text())
		default:
			text.WriteByte(' ')
		}
	}
}

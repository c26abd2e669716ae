package workflow

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// readingWordsPerMinute is the assumed reading speed for the read-time
// estimate.
const readingWordsPerMinute = 200

// plainText parses the markdown body and returns its prose content with all
// markup stripped, so word counts are not inflated by syntax.
func plainText(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// wordCount counts words in the markdown body's prose content.
func wordCount(markdown string) int {
	return len(strings.Fields(plainText(markdown)))
}

// readTimeMinutes estimates the reading time for the given word count,
// rounding up. Any non-empty body reads for at least one minute.
func readTimeMinutes(words int) int {
	if words <= 0 {
		return 0
	}
	minutes := (words + readingWordsPerMinute - 1) / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

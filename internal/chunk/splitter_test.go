package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Split("", DefaultMaxTokens))
	assert.Nil(t, Split("   \n\n  \t", DefaultMaxTokens))
}

func TestSplit_NonEmptyInputYieldsChunks(t *testing.T) {
	t.Parallel()

	chunks := Split("A single short paragraph.", DefaultMaxTokens)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "A single short paragraph.", chunks[0])
}

func TestSplit_PreservesParagraphBoundaries(t *testing.T) {
	t.Parallel()

	text := "First paragraph about the brand.\n\nSecond paragraph about the product."
	chunks := Split(text, DefaultMaxTokens)

	// Both paragraphs fit within one budget so they stay together.
	assert.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "First paragraph")
	assert.Contains(t, chunks[0], "Second paragraph")
}

func TestSplit_RespectsTokenBudget(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("This sentence pads the paragraph with more tokens than the budget allows. ")
	}

	chunks := Split(sb.String(), 50)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
		assert.LessOrEqual(t, countTokens(c), 120, "chunk should stay near the budget")
	}
}

func TestSplit_ManyParagraphsGroupUpToBudget(t *testing.T) {
	t.Parallel()

	paras := make([]string, 20)
	for i := range paras {
		paras[i] = "A short paragraph with a handful of tokens in it."
	}
	text := strings.Join(paras, "\n\n")

	chunks := Split(text, 60)
	assert.Greater(t, len(chunks), 1)

	var total int
	for _, c := range chunks {
		total += strings.Count(c, "A short paragraph")
	}
	assert.Equal(t, 20, total, "no paragraph is dropped")
}

func TestSplit_ZeroBudgetUsesDefault(t *testing.T) {
	t.Parallel()

	chunks := Split("Some text.", 0)
	assert.Len(t, chunks, 1)
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	got := splitSentences("One. Two! Three? Trailing fragment")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Trailing fragment"}, got)
}

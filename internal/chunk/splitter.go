// Package chunk splits text into token-bounded pieces. It backs the
// LLM-assisted chunking stage: when the model fails to return a usable chunk
// list, the splitter guarantees the pipeline still gets bounded chunks, and a
// non-empty input never chunks to nothing.
package chunk

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultMaxTokens bounds a chunk when the caller does not specify a budget.
const DefaultMaxTokens = 500

// encodingName is the tokenizer used for budgeting. Chunk budgets are
// approximate; any stable encoding works.
const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// countTokens returns the token count of text, falling back to a character
// heuristic if the tokenizer is unavailable (e.g. no BPE data in an offline
// environment).
func countTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			enc = e
		}
	})
	if enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	// Rough heuristic: one token per four characters.
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}

// Split divides text into chunks of at most maxTokens tokens, preferring
// paragraph boundaries and falling back to sentence-ish boundaries for
// oversized paragraphs. Whitespace-only input yields no chunks; any other
// input yields at least one non-empty chunk.
func Split(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentTokens = 0
		}
	}

	for _, para := range strings.Split(trimmed, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		for _, piece := range splitOversized(para, maxTokens) {
			pieceTokens := countTokens(piece)
			if currentTokens > 0 && currentTokens+pieceTokens > maxTokens {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
			currentTokens += pieceTokens
		}
	}
	flush()

	return chunks
}

// splitOversized breaks a paragraph that exceeds the budget into smaller
// pieces on sentence boundaries, hard-splitting only as a last resort.
func splitOversized(para string, maxTokens int) []string {
	if countTokens(para) <= maxTokens {
		return []string{para}
	}

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	for _, sentence := range splitSentences(para) {
		sentenceTokens := countTokens(sentence)
		if currentTokens > 0 && currentTokens+sentenceTokens > maxTokens {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
			currentTokens = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		currentTokens += sentenceTokens
	}
	if current.Len() > 0 {
		pieces = append(pieces, strings.TrimSpace(current.String()))
	}
	return pieces
}

// splitSentences naively splits on sentence-ending punctuation. Good enough
// for budgeting; the distillation stage cleans chunk boundaries anyway.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			if s := strings.TrimSpace(text[start:end]); s != "" {
				sentences = append(sentences, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

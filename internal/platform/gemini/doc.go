// Package gemini implements the generation interfaces (text, structured
// object, embeddings) on top of Google's Gemini API. Calls are wrapped in a
// bounded exponential-backoff retry envelope; permanent failures (safety
// blocks, malformed responses) are surfaced immediately without retrying.
package gemini

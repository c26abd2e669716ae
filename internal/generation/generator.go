package generation

import "context"

// Request carries one LLM call: a system instruction describing the role and
// a prompt with the actual input. Both travel together so implementations can
// map them onto whatever message structure the vendor expects.
type Request struct {
	System string
	Prompt string
}

// TextGenerator produces free-form text from a request.
//
// Implementations must never return empty or whitespace-only text as a
// success; they return ErrEmptyGeneration instead so callers can rely on a
// non-empty result.
type TextGenerator interface {
	GenerateText(ctx context.Context, req Request) (string, error)
}

// ObjectGenerator produces structured output: the response is constrained to
// a JSON schema derived from out's type and decoded into it. Used where
// free-text parsing would be fragile (chunk lists, metadata analyses).
type ObjectGenerator interface {
	GenerateObject(ctx context.Context, req Request, out any) error
}

// Embedder converts texts into vectors for the knowledge store.
// The returned slice matches the input order and length.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

package gemini

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/draftmill/draftmill-api/internal/config"
	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:        "test-key",
		ModelName:           "gemini-2.0-flash",
		StructuredModelName: "gemini-2.0-flash",
		EmbeddingModelName:  "text-embedding-004",
		MaxRetries:          1,
		RetryDelaySeconds:   1,
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewGenerator(ctx, nil, testLLMConfig())
		assert.Error(t, err)
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := testLLMConfig()
		cfg.GeminiAPIKey = ""
		_, err := NewGenerator(ctx, log, cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		cfg := testLLMConfig()
		cfg.ModelName = ""
		_, err := NewGenerator(ctx, log, cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestExtractText(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		_, err := extractText(nil)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := extractText(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("safety block", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		_, err := extractText(resp)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("empty content", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
		}
		_, err := extractText(resp)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("concatenates parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Hello, "},
					{Text: "world."},
				}},
			}},
		}
		text, err := extractText(resp)
		require.NoError(t, err)
		assert.Equal(t, "Hello, world.", text)
	})
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/draftmill/draftmill-api/internal/config"
	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/redact"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

// Generator implements generation.TextGenerator, generation.ObjectGenerator
// and generation.Embedder using Google's Gemini API.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
}

// NewGenerator creates a new Generator with the provided configuration.
// Returns an error wrapping generation.ErrInvalidConfig if required settings
// are missing or the client cannot be constructed.
func NewGenerator(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" || cfg.StructuredModelName == "" || cfg.EmbeddingModelName == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: log.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
	}, nil
}

// Interface assertions
var (
	_ generation.TextGenerator   = (*Generator)(nil)
	_ generation.ObjectGenerator = (*Generator)(nil)
	_ generation.Embedder        = (*Generator)(nil)
)

// GenerateText implements generation.TextGenerator.
// It returns generation.ErrEmptyGeneration if the model produced no usable
// text; an empty result is never a success.
func (g *Generator) GenerateText(ctx context.Context, req generation.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", generation.ErrEmptyPrompt
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	text, err := g.callWithRetry(ctx, g.config.ModelName, req, cfg)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text generation", generation.ErrEmptyGeneration)
	}
	return text, nil
}

// GenerateObject implements generation.ObjectGenerator.
// The response is constrained to a JSON schema derived from out's type and
// decoded into it; a response that does not decode is a permanent
// ErrInvalidResponse, not a retry candidate.
func (g *Generator) GenerateObject(ctx context.Context, req generation.Request, out any) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return generation.ErrEmptyPrompt
	}

	schema, err := schemaFor(out)
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	text, err := g.callWithRetry(ctx, g.config.StructuredModelName, req, cfg)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: failed to decode structured response: %v", generation.ErrInvalidResponse, err)
	}
	return nil
}

// EmbedTexts implements generation.Embedder.
func (g *Generator) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	var resp *genai.EmbedContentResponse
	err := retry.Do(ctx, g.backoff(), func(ctx context.Context) error {
		var callErr error
		resp, callErr = g.client.Models.EmbedContent(ctx, g.config.EmbeddingModelName, contents, nil)
		if callErr != nil {
			return retry.RetryableError(callErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			generation.ErrInvalidResponse, len(texts), embeddingCount(resp))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", generation.ErrInvalidResponse, i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}

// backoff builds the retry schedule from the configured retry settings.
func (g *Generator) backoff() retry.Backoff {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	delaySeconds := g.config.RetryDelaySeconds
	if delaySeconds < 1 {
		delaySeconds = 2
	}

	backoff := retry.NewExponential(time.Duration(delaySeconds) * time.Second)
	backoff = retry.WithJitter(250*time.Millisecond, backoff)
	return retry.WithMaxRetries(uint64(maxRetries), backoff)
}

// callWithRetry makes a GenerateContent call under the retry envelope.
// API errors are treated as transient; safety blocks and empty candidates are
// permanent and returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, model string, req generation.Request, cfg *genai.GenerateContentConfig) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	var text string
	err := retry.Do(ctx, g.backoff(), func(ctx context.Context) error {
		resp, callErr := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
		if callErr != nil {
			log.Warn("Gemini API call error",
				slog.String("model", model),
				slog.Int("prompt_length", len(req.Prompt)),
				slog.String("error", redact.Error(callErr)))
			return retry.RetryableError(fmt.Errorf("%w: %v", generation.ErrTransientFailure, callErr))
		}

		extracted, extractErr := extractText(resp)
		if extractErr != nil {
			// Permanent: retrying a safety block or a structurally empty
			// response with the same payload cannot help.
			return extractErr
		}

		text = extracted
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	log.Debug("Gemini API call successful",
		slog.String("model", model),
		slog.Int("response_length", len(text)))
	return text, nil
}

// extractText pulls the text out of a response, classifying structural
// problems as permanent errors.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/draftmill/draftmill-api/internal/chunk"
	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/redact"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

// chunkKey formats the deterministic object key for a brand chunk.
// Keys depend only on agent and position, so a retried upload overwrites the
// same objects instead of creating new ones.
func chunkKey(agentID uuid.UUID, index int) string {
	return fmt.Sprintf("agents/%s/knowledge/chunk-%03d.md", agentID, index+1)
}

// chunkFileName is the file name recorded against the agent for a chunk.
func chunkFileName(index int) string {
	return fmt.Sprintf("chunk-%03d.md", index+1)
}

// crawlWebsite collects the raw page text of the given website. Zero crawled
// pages is a failure, reported by the crawler client.
func (e *Engine) crawlWebsite(ctx context.Context, websiteURL string) (string, error) {
	return task.Retry(ctx, e.retry, "crawl-website", func(ctx context.Context) (string, error) {
		return e.crawler.Crawl(ctx, websiteURL)
	})
}

// webSearch collects raw result text for the given query. Zero results is a
// failure, reported by the searcher client.
func (e *Engine) webSearch(ctx context.Context, query string) (string, error) {
	return task.Retry(ctx, e.retry, "web-search", func(ctx context.Context) (string, error) {
		return e.searcher.Search(ctx, query)
	})
}

// createBrandDocument synthesizes one long-form brand document from raw
// website text. The generator never returns empty text as success, so a
// successful result is always usable.
func (e *Engine) createBrandDocument(ctx context.Context, rawText string) (string, error) {
	return task.Retry(ctx, e.retry, "create-brand-document", func(ctx context.Context) (string, error) {
		return e.textGen.GenerateText(ctx, generation.Request{
			System: brandAnalystSystem,
			Prompt: rawText,
		})
	})
}

// chunkList is the structured response shape for the chunking step.
type chunkList struct {
	Chunks []string `json:"chunks"`
}

// chunkDocument splits text into self-contained chunks via a structured LLM
// call. If the model fails or returns nothing usable, a token-bounded
// splitter takes over so a non-empty input never chunks to nothing.
func (e *Engine) chunkDocument(ctx context.Context, text string) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	out, err := task.Retry(ctx, e.retry, "chunk-document", func(ctx context.Context) (chunkList, error) {
		var out chunkList
		if err := e.objectGen.GenerateObject(ctx, generation.Request{
			System: chunkerSystem,
			Prompt: chunkListPrompt(text),
		}, &out); err != nil {
			return chunkList{}, err
		}
		return out, nil
	})

	var chunks []string
	if err == nil {
		for _, c := range out.Chunks {
			if strings.TrimSpace(c) != "" {
				chunks = append(chunks, c)
			}
		}
	}

	if len(chunks) == 0 {
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, err
		}
		log.Warn("structured chunking produced no chunks, using fallback splitter",
			slog.Int("text_length", len(text)),
			slog.String("text_preview", redact.Preview(text, 120)))
		chunks = chunk.Split(text, chunk.DefaultMaxTokens)
	}

	return chunks, nil
}

// distillChunk rewrites one chunk into dense factual prose.
func (e *Engine) distillChunk(ctx context.Context, chunkText string) (string, error) {
	return task.Retry(ctx, e.retry, "chunk-distillation", func(ctx context.Context) (string, error) {
		return e.textGen.GenerateText(ctx, generation.Request{
			System: distillerSystem,
			Prompt: distillPrompt(chunkText),
		})
	})
}

// uploadBrandChunks writes each chunk to object storage under a deterministic
// per-agent key and records the file metadata against the agent. Any single
// upload failure aborts the whole step. The returned records still carry the
// raw content for downstream distillation; the database rows do not.
func (e *Engine) uploadBrandChunks(
	ctx context.Context,
	agentID uuid.UUID,
	chunks []string,
) ([]domain.UploadedFile, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	files := make([]domain.UploadedFile, len(chunks))
	for i, c := range chunks {
		key := chunkKey(agentID, i)
		_, err := task.Retry(ctx, e.retry, "upload-brand-chunk", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.storage.Upload(ctx, key, []byte(c), "text/markdown")
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload chunk %d of %d: %w", i+1, len(chunks), err)
		}

		files[i] = domain.UploadedFile{
			FileName:   chunkFileName(i),
			FileURL:    key,
			UploadedAt: time.Now().UTC(),
			RawContent: c,
		}
	}

	stripped := make([]domain.UploadedFile, len(files))
	for i, f := range files {
		stripped[i] = f.WithoutRawContent()
	}

	_, err := task.Retry(ctx, e.retry, "record-uploaded-files", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.agents.AppendUploadedFiles(ctx, agentID, stripped)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record uploaded files: %w", err)
	}

	log.Info("brand chunks uploaded",
		slog.String("agent_id", agentID.String()),
		slog.Int("chunk_count", len(chunks)))
	return files, nil
}

// fetchAgent loads the agent configuration. A missing agent is a caller
// error, not a transient failure, and is never retried.
func (e *Engine) fetchAgent(ctx context.Context, agentID uuid.UUID) (*domain.Agent, error) {
	return task.Retry(ctx, e.retry, "fetch-agent", func(ctx context.Context) (*domain.Agent, error) {
		agent, err := e.agents.GetByID(ctx, agentID)
		if err != nil {
			if errors.Is(err, store.ErrAgentNotFound) {
				return nil, precondition(fmt.Errorf("agent %s not found", agentID))
			}
			return nil, err
		}
		return agent, nil
	})
}

// improveBrief queries the agent's stored knowledge for chunks relevant to
// the brief, then rewrites the brief grounded in them. Returns the improved
// brief and the retrieved chunks.
func (e *Engine) improveBrief(
	ctx context.Context,
	agentID uuid.UUID,
	purpose, description string,
) (string, []string, error) {
	knowledge, err := task.Retry(ctx, e.retry, "knowledge-chunk-rag", func(ctx context.Context) ([]string, error) {
		return e.knowledge.Query(ctx, agentID, description, 0)
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to query agent knowledge: %w", err)
	}

	improved, err := task.Retry(ctx, e.retry, "improve-brief", func(ctx context.Context) (string, error) {
		return e.textGen.GenerateText(ctx, generation.Request{
			System: briefImproverSystem,
			Prompt: improveBriefPrompt(description, purpose, knowledge),
		})
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to improve brief: %w", err)
	}

	return improved, knowledge, nil
}

// generateContent produces the article body. The generator treats empty
// output as an error, so a successful result always carries a body.
func (e *Engine) generateContent(
	ctx context.Context,
	agent *domain.Agent,
	request domain.ContentRequest,
	improvedBrief, brandContext, searchContext string,
) (string, error) {
	return task.Retry(ctx, e.retry, "generate-content", func(ctx context.Context) (string, error) {
		return e.textGen.GenerateText(ctx, generation.Request{
			System: agent.SystemPrompt,
			Prompt: generateContentPrompt(agent, request, improvedBrief, brandContext, searchContext),
		})
	})
}

// contentMetaAnalysis is the structured response shape for the metadata
// analysis.
type contentMetaAnalysis struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Slug        string   `json:"slug"`
	Sources     []string `json:"sources"`
}

// qualityAnalysis is the structured response shape for the quality review.
type qualityAnalysis struct {
	Score float64 `json:"score"`
}

// analyzeContent runs the statistics and metadata analyses of a generated
// body concurrently. Word count and read time are computed locally from the
// markdown; the quality score and the metadata come from two independent LLM
// calls. Only when both calls fail does the step fail.
func (e *Engine) analyzeContent(ctx context.Context, body string) (domain.ContentStats, domain.ContentMeta, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	var (
		metaOut contentMetaAnalysis
		metaErr error

		qualityOut qualityAnalysis
		qualityErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		metaOut, metaErr = task.Retry(gctx, e.retry, "generate-content-metadata", func(ctx context.Context) (contentMetaAnalysis, error) {
			var out contentMetaAnalysis
			if err := e.objectGen.GenerateObject(ctx, generation.Request{
				System: metadataSystem,
				Prompt: metadataPrompt(body),
			}, &out); err != nil {
				return contentMetaAnalysis{}, err
			}
			return out, nil
		})
		return nil
	})
	g.Go(func() error {
		qualityOut, qualityErr = task.Retry(gctx, e.retry, "score-content-quality", func(ctx context.Context) (qualityAnalysis, error) {
			var out qualityAnalysis
			if err := e.objectGen.GenerateObject(ctx, generation.Request{
				System: qualitySystem,
				Prompt: qualityPrompt(body),
			}, &out); err != nil {
				return qualityAnalysis{}, err
			}
			return out, nil
		})
		return nil
	})
	// Goroutines record their own errors; Wait only synchronizes.
	_ = g.Wait()

	if metaErr != nil && qualityErr != nil {
		return domain.ContentStats{}, domain.ContentMeta{}, fmt.Errorf(
			"%w: metadata: %v; quality: %v", ErrEmptyAnalysis, metaErr, qualityErr)
	}
	if metaErr != nil {
		log.Warn("metadata analysis failed, continuing with statistics only",
			slog.Int("body_length", len(body)),
			slog.String("body_preview", redact.Preview(body, 120)),
			slog.String("error", redact.Error(metaErr)))
	}
	if qualityErr != nil {
		log.Warn("quality analysis failed, continuing without a score",
			slog.String("error", redact.Error(qualityErr)))
	}

	words := wordCount(body)
	stats := domain.ContentStats{
		WordCount:       words,
		ReadTimeMinutes: readTimeMinutes(words),
		QualityScore:    qualityOut.Score,
	}

	meta := domain.ContentMeta{
		Title:       metaOut.Title,
		Description: metaOut.Description,
		Keywords:    metaOut.Keywords,
		Slug:        metaOut.Slug,
		Sources:     metaOut.Sources,
	}
	if meta.Slug == "" && meta.Title != "" {
		meta.Slug = slug.Make(meta.Title)
	}

	return stats, meta, nil
}

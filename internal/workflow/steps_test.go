package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDocument_UsesStructuredOutput(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	setChunks(e, deps, []string{"alpha", "  ", "beta", ""})

	chunks, err := e.chunkDocument(context.Background(), "some document text")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, chunks, "blank entries are filtered")
}

func TestChunkDocument_FallsBackOnModelError(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	deps.objectGen.fn = func(req generation.Request, out any) error {
		return errors.New("structured output unavailable")
	}

	chunks, err := e.chunkDocument(context.Background(), "A paragraph of content.\n\nAnother paragraph of content.")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks, "non-empty input never chunks to nothing")
	for _, c := range chunks {
		assert.NotEmpty(t, c)
	}
}

func TestChunkDocument_FallsBackOnEmptyModelResult(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	setChunks(e, deps, nil)

	chunks, err := e.chunkDocument(context.Background(), "Content that must survive chunking.")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestChunkDocument_EmptyInput(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine()

	chunks, err := e.chunkDocument(context.Background(), "   \n\n ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestUploadBrandChunks_StripsRawContentFromRecords(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	agentID := uuid.New()

	files, err := e.uploadBrandChunks(context.Background(), agentID, []string{"one", "two"})
	require.NoError(t, err)

	// Returned records keep the bytes for downstream distillation.
	require.Len(t, files, 2)
	assert.Equal(t, "one", files[0].RawContent)
	assert.Equal(t, "chunk-001.md", files[0].FileName)
	assert.Equal(t, "chunk-002.md", files[1].FileName)

	// Persisted records do not.
	for _, f := range deps.agents.appendedFiles(agentID) {
		assert.Empty(t, f.RawContent)
	}
}

func TestUploadBrandChunks_SingleFailureAbortsAll(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	deps.storage.err = errors.New("storage down")

	files, err := e.uploadBrandChunks(context.Background(), uuid.New(), []string{"one", "two"})
	require.Error(t, err)
	assert.Nil(t, files)
}

func TestFetchAgent_NotFoundIsPrecondition(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine()

	_, err := e.fetchAgent(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestImproveBrief_PassesKnowledgeToModel(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	deps.knowledge.results = []string{"the brand ships weekly"}

	var seenPrompt string
	deps.textGen.fn = func(req generation.Request) (string, error) {
		seenPrompt = req.Prompt
		return "improved", nil
	}

	improved, knowledge, err := e.improveBrief(context.Background(), uuid.New(), "educate", "write about releases")
	require.NoError(t, err)
	assert.Equal(t, "improved", improved)
	assert.Equal(t, []string{"the brand ships weekly"}, knowledge)
	assert.Contains(t, seenPrompt, "the brand ships weekly")
	assert.Contains(t, seenPrompt, "write about releases")
}

func TestAnalyzeContent_PartialFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	body := "# Title\n\nSome body text with several words in it."

	t.Run("metadata fails, quality survives", func(t *testing.T) {
		t.Parallel()

		e, deps := newTestEngine()
		deps.objectGen.fn = func(req generation.Request, out any) error {
			switch v := out.(type) {
			case *contentMetaAnalysis:
				return errors.New("metadata model error")
			case *qualityAnalysis:
				v.Score = 6.0
				return nil
			default:
				return errors.New("unexpected type")
			}
		}

		stats, meta, err := e.analyzeContent(context.Background(), body)
		require.NoError(t, err)
		assert.True(t, meta.IsZero())
		assert.InDelta(t, 6.0, stats.QualityScore, 0.001)
		assert.NotZero(t, stats.WordCount)
	})

	t.Run("quality fails, metadata survives", func(t *testing.T) {
		t.Parallel()

		e, deps := newTestEngine()
		deps.objectGen.fn = func(req generation.Request, out any) error {
			switch v := out.(type) {
			case *contentMetaAnalysis:
				v.Title = "A Title"
				return nil
			case *qualityAnalysis:
				return errors.New("quality model error")
			default:
				return errors.New("unexpected type")
			}
		}

		stats, meta, err := e.analyzeContent(context.Background(), body)
		require.NoError(t, err)
		assert.Equal(t, "A Title", meta.Title)
		assert.Zero(t, stats.QualityScore)
		assert.NotZero(t, stats.WordCount)
	})
}

func TestAnalyzeContent_DerivesSlugFromTitle(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	deps.objectGen.fn = func(req generation.Request, out any) error {
		switch v := out.(type) {
		case *contentMetaAnalysis:
			v.Title = "OAuth2 For Beginners!"
		case *qualityAnalysis:
			v.Score = 8.0
		}
		return nil
	}

	_, meta, err := e.analyzeContent(context.Background(), "body text")
	require.NoError(t, err)
	assert.Equal(t, "oauth2-for-beginners", meta.Slug)
}

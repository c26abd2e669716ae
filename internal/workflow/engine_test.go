package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSearcher fails every call and records how often it was invoked.
type countingSearcher struct {
	calls int
}

func (s *countingSearcher) Search(_ context.Context, _ string) (string, error) {
	s.calls++
	return "", errors.New("search unavailable")
}

func newEngineWithRetry(t *testing.T, policy task.RetryPolicy, searcher Searcher) *Engine {
	t.Helper()
	deps := &testDeps{
		agents:    newFakeAgentStore(),
		contents:  newFakeContentStore(),
		textGen:   &fakeTextGen{},
		objectGen: chunkingObjectGen(nil),
		knowledge: &fakeKnowledge{},
		storage:   newFakeUploader(),
		crawler:   &fakeCrawler{},
	}

	engine, err := NewEngine(EngineConfig{
		Agents:    deps.agents,
		Contents:  deps.contents,
		TextGen:   deps.textGen,
		ObjectGen: deps.objectGen,
		Knowledge: deps.knowledge,
		Storage:   deps.storage,
		Crawler:   deps.crawler,
		Searcher:  searcher,
		Retry:     policy,
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	searcher := &countingSearcher{}
	engine := newEngineWithRetry(t, task.RetryPolicy{
		MaxRetries: 0,
		BaseDelay:  time.Millisecond,
	}, searcher)

	assert.Equal(t, 0, engine.retry.MaxRetries)

	_, err := engine.webSearch(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, 1, searcher.calls)
}

func TestNewEngine_ConfiguredRetriesAreHonored(t *testing.T) {
	searcher := &countingSearcher{}
	engine := newEngineWithRetry(t, task.RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	}, searcher)

	_, err := engine.webSearch(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, 3, searcher.calls)
}

func TestNewEngine_DefaultsOnlyDelayBounds(t *testing.T) {
	engine := newEngineWithRetry(t, task.RetryPolicy{MaxRetries: 2}, &fakeSearcher{})

	defaults := task.DefaultRetryPolicy()
	assert.Equal(t, 2, engine.retry.MaxRetries)
	assert.Equal(t, defaults.BaseDelay, engine.retry.BaseDelay)
	assert.Equal(t, defaults.MaxDuration, engine.retry.MaxDuration)
}

package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/draftmill/draftmill-api/internal/events"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandler_SubmitsContentGenerationTask(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	handler, err := NewEventHandler(e, nil)
	require.NoError(t, err)

	event, err := events.NewWorkflowRequestEvent(task.TaskTypeContentGeneration, ContentGenerationPayload{
		AgentID:   uuid.New(),
		ContentID: uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	submitted := deps.dispatcher.submittedTasks()
	require.Len(t, submitted, 1)
	assert.Equal(t, task.TaskTypeContentGeneration, submitted[0].Type())
}

func TestEventHandler_SubmitsBrandKnowledgeTask(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	handler, err := NewEventHandler(e, nil)
	require.NoError(t, err)

	event, err := events.NewWorkflowRequestEvent(task.TaskTypeBrandKnowledge, BrandKnowledgePayload{
		AgentID:    uuid.New(),
		WebsiteURL: "https://example.com",
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))
	require.Len(t, deps.dispatcher.submittedTasks(), 1)
}

func TestEventHandler_RejectsUnknownWorkflowType(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	handler, err := NewEventHandler(e, nil)
	require.NoError(t, err)

	event, err := events.NewWorkflowRequestEvent("reindex_everything", nil)
	require.NoError(t, err)

	handleErr := handler.HandleEvent(context.Background(), event)
	require.Error(t, handleErr)
	assert.Contains(t, handleErr.Error(), "unknown workflow type")
	assert.Empty(t, deps.dispatcher.submittedTasks())
}

func TestEventHandler_RejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	handler, err := NewEventHandler(e, nil)
	require.NoError(t, err)

	// Missing website URL fails task construction, not submission.
	event, err := events.NewWorkflowRequestEvent(task.TaskTypeBrandKnowledge, BrandKnowledgePayload{
		AgentID: uuid.New(),
	})
	require.NoError(t, err)

	handleErr := handler.HandleEvent(context.Background(), event)
	require.Error(t, handleErr)
	assert.ErrorIs(t, handleErr, ErrEmptyWebsiteURL)
	assert.Empty(t, deps.dispatcher.submittedTasks())
}

func TestEventHandler_PropagatesSubmitFailure(t *testing.T) {
	t.Parallel()

	e, deps := newTestEngine()
	deps.dispatcher.err = errors.New("queue is full")
	handler, err := NewEventHandler(e, nil)
	require.NoError(t, err)

	event, err := events.NewWorkflowRequestEvent(task.TaskTypeContentGeneration, ContentGenerationPayload{
		AgentID:   uuid.New(),
		ContentID: uuid.New(),
	})
	require.NoError(t, err)

	handleErr := handler.HandleEvent(context.Background(), event)
	require.Error(t, handleErr)
	assert.Contains(t, handleErr.Error(), "queue is full")
}

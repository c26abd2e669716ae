package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/draftmill/draftmill-api/internal/events"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/task"
)

// EventHandler turns workflow-request events into durable tasks submitted to
// the runner. It is the bridge between the API surface and the engine.
type EventHandler struct {
	engine *Engine
	logger *slog.Logger
}

// Verify EventHandler implements events.EventHandler
var _ events.EventHandler = (*EventHandler)(nil)

// NewEventHandler creates an EventHandler for the given engine.
func NewEventHandler(engine *Engine, log *slog.Logger) (*EventHandler, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if log == nil {
		log = slog.Default()
	}

	return &EventHandler{
		engine: engine,
		logger: log.With(slog.String("component", "workflow_event_handler")),
	}, nil
}

// HandleEvent builds the workflow task for the event and submits it.
func (h *EventHandler) HandleEvent(ctx context.Context, event *events.WorkflowRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	t, err := h.buildTask(event)
	if err != nil {
		log.Error("failed to build workflow task from event",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()))
		return err
	}

	if h.engine.dispatcher == nil {
		return fmt.Errorf("no task dispatcher configured")
	}
	if err := h.engine.dispatcher.Submit(ctx, t); err != nil {
		log.Error("failed to submit workflow task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to submit %s task: %w", t.Type(), err)
	}

	log.Info("workflow task submitted",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()))
	return nil
}

func (h *EventHandler) buildTask(event *events.WorkflowRequestEvent) (task.Task, error) {
	switch event.Type {
	case task.TaskTypeBrandKnowledge:
		var payload BrandKnowledgePayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return nil, fmt.Errorf("invalid brand-knowledge payload: %w", err)
		}
		return NewBrandKnowledgeTask(h.engine, payload)

	case task.TaskTypeKnowledgeDistillation:
		var payload DistillationPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return nil, fmt.Errorf("invalid distillation payload: %w", err)
		}
		return NewDistillationTask(h.engine, payload)

	case task.TaskTypeContentGeneration:
		var payload ContentGenerationPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return nil, fmt.Errorf("invalid content-generation payload: %w", err)
		}
		return NewContentGenerationTask(h.engine, payload)

	default:
		return nil, fmt.Errorf("unknown workflow type %q", event.Type)
	}
}

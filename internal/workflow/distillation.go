package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
)

// Payload validation errors for distillation
var (
	ErrEmptySourceID  = errors.New("source ID cannot be empty")
	ErrEmptyInputText = errors.New("input text cannot be empty")
)

// DistillationPayload is the input for one knowledge-distillation run.
type DistillationPayload struct {
	AgentID   uuid.UUID `json:"agent_id"`
	SourceID  string    `json:"source_id"`
	InputText string    `json:"input_text"`
}

// DistillationTask turns input text into distilled knowledge chunks in the
// vector store. The run has a strict stage barrier: every chunk must distill
// successfully before any chunk is saved, so a failing run never leaves
// partial writes for its source.
type DistillationTask struct {
	id      uuid.UUID
	payload DistillationPayload
	engine  *Engine
	status  task.TaskStatus
}

// Verify DistillationTask implements task.Task
var _ task.ScopedTask = (*DistillationTask)(nil)

// NewDistillationTask creates a distillation task for the given agent, source
// and input text.
func NewDistillationTask(engine *Engine, payload DistillationPayload) (*DistillationTask, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if payload.AgentID == uuid.Nil {
		return nil, ErrEmptyAgentID
	}
	if payload.SourceID == "" {
		return nil, ErrEmptySourceID
	}
	if payload.InputText == "" {
		return nil, ErrEmptyInputText
	}

	return &DistillationTask{
		id:      uuid.New(),
		payload: payload,
		engine:  engine,
		status:  task.TaskStatusPending,
	}, nil
}

// newDistillationTaskFromRow rebuilds a persisted distillation task.
func newDistillationTaskFromRow(
	engine *Engine,
	id uuid.UUID,
	raw []byte,
	status task.TaskStatus,
) (*DistillationTask, error) {
	var payload DistillationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distillation payload: %w", err)
	}

	t, err := NewDistillationTask(engine, payload)
	if err != nil {
		return nil, err
	}
	t.id = id
	t.status = status
	return t, nil
}

// ID returns the task's unique identifier.
func (t *DistillationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *DistillationTask) Type() string {
	return task.TaskTypeKnowledgeDistillation
}

// Payload returns the task data as a byte slice.
func (t *DistillationTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		return []byte{}
	}
	return data
}

// Status returns the current task status.
func (t *DistillationTask) Status() task.TaskStatus {
	return t.status
}

// TaskScope returns the agent and knowledge source this run distills for.
func (t *DistillationTask) TaskScope() task.Scope {
	return task.Scope{AgentID: t.payload.AgentID, SourceID: t.payload.SourceID}
}

// Execute runs the knowledge-distillation workflow.
func (t *DistillationTask) Execute(ctx context.Context) error {
	e := t.engine
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("workflow", t.Type()),
		slog.String("agent_id", t.payload.AgentID.String()),
		slog.String("source_id", t.payload.SourceID),
	)
	ctx = logger.WithLogger(ctx, log)

	log.Info("knowledge-distillation workflow started",
		slog.Int("input_length", len(t.payload.InputText)))

	chunks, err := e.chunkDocument(ctx, t.payload.InputText)
	if err != nil {
		return stageError("chunking", err)
	}
	if len(chunks) == 0 {
		log.Info("input produced no chunks, nothing to distill")
		return nil
	}

	distillResults := task.TriggerAndWait(ctx, chunks, func(ctx context.Context, c string) (string, error) {
		return e.distillChunk(ctx, c)
	})
	distilled, err := task.CollectOutputs("chunk distillation", distillResults)
	if err != nil {
		return fmt.Errorf("knowledge distillation for source %s: %w", t.payload.SourceID, err)
	}

	// The save stage only starts after every chunk distilled successfully.
	saveResults := task.TriggerAndWait(ctx, distilled, func(ctx context.Context, text string) (struct{}, error) {
		_, err := task.Retry(ctx, e.retry, "save-chunk", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.knowledge.Add(ctx, []domain.KnowledgeChunk{{
				Text:     text,
				AgentID:  t.payload.AgentID,
				SourceID: t.payload.SourceID,
			}})
		})
		return struct{}{}, err
	})
	if _, err := task.CollectOutputs("vector storage", saveResults); err != nil {
		return fmt.Errorf("knowledge distillation for source %s: %w", t.payload.SourceID, err)
	}

	log.Info("knowledge-distillation workflow completed",
		slog.Int("chunk_count", len(chunks)))
	return nil
}

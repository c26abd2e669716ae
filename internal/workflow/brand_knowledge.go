package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
)

// Payload validation errors shared by the workflow tasks
var (
	ErrNilEngine       = errors.New("engine cannot be nil")
	ErrEmptyAgentID    = errors.New("agent ID cannot be empty")
	ErrEmptyWebsiteURL = errors.New("website URL cannot be empty")
)

// BrandKnowledgePayload is the input for one brand-knowledge run.
type BrandKnowledgePayload struct {
	AgentID    uuid.UUID `json:"agent_id"`
	WebsiteURL string    `json:"website_url"`
}

// BrandKnowledgeTask builds an agent's brand knowledge from its website:
// crawl, synthesize a brand document, chunk it, upload the chunks to object
// storage, then fan out one distillation run per chunk. The task returns once
// upload and dispatch complete; distillation runs asynchronously, observable
// through the tasks table.
type BrandKnowledgeTask struct {
	id      uuid.UUID
	payload BrandKnowledgePayload
	engine  *Engine
	status  task.TaskStatus
}

// Verify BrandKnowledgeTask implements task.ScopedTask
var _ task.ScopedTask = (*BrandKnowledgeTask)(nil)

// NewBrandKnowledgeTask creates a brand-knowledge task for the given agent
// and website.
func NewBrandKnowledgeTask(engine *Engine, payload BrandKnowledgePayload) (*BrandKnowledgeTask, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if payload.AgentID == uuid.Nil {
		return nil, ErrEmptyAgentID
	}
	if payload.WebsiteURL == "" {
		return nil, ErrEmptyWebsiteURL
	}

	return &BrandKnowledgeTask{
		id:      uuid.New(),
		payload: payload,
		engine:  engine,
		status:  task.TaskStatusPending,
	}, nil
}

// newBrandKnowledgeTaskFromRow rebuilds a persisted brand-knowledge task.
func newBrandKnowledgeTaskFromRow(
	engine *Engine,
	id uuid.UUID,
	raw []byte,
	status task.TaskStatus,
) (*BrandKnowledgeTask, error) {
	var payload BrandKnowledgePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal brand-knowledge payload: %w", err)
	}

	t, err := NewBrandKnowledgeTask(engine, payload)
	if err != nil {
		return nil, err
	}
	t.id = id
	t.status = status
	return t, nil
}

// ID returns the task's unique identifier.
func (t *BrandKnowledgeTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *BrandKnowledgeTask) Type() string {
	return task.TaskTypeBrandKnowledge
}

// Payload returns the task data as a byte slice.
func (t *BrandKnowledgeTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		return []byte{}
	}
	return data
}

// Status returns the current task status.
func (t *BrandKnowledgeTask) Status() task.TaskStatus {
	return t.status
}

// TaskScope returns the agent this run builds knowledge for.
func (t *BrandKnowledgeTask) TaskScope() task.Scope {
	return task.Scope{AgentID: t.payload.AgentID}
}

// Execute runs the brand-knowledge workflow.
func (t *BrandKnowledgeTask) Execute(ctx context.Context) error {
	e := t.engine
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("workflow", t.Type()),
		slog.String("agent_id", t.payload.AgentID.String()),
	)
	ctx = logger.WithLogger(ctx, log)

	log.Info("brand-knowledge workflow started",
		slog.String("website_url", t.payload.WebsiteURL))

	rawText, err := e.crawlWebsite(ctx, t.payload.WebsiteURL)
	if err != nil {
		return stageError("crawl", err)
	}

	document, err := e.createBrandDocument(ctx, rawText)
	if err != nil {
		return stageError("brand-document synthesis", err)
	}

	chunks, err := e.chunkDocument(ctx, document)
	if err != nil {
		return stageError("chunking", err)
	}
	if len(chunks) == 0 {
		return stageError("chunking", errors.New("brand document produced no chunks"))
	}

	files, err := e.uploadBrandChunks(ctx, t.payload.AgentID, chunks)
	if err != nil {
		return stageError("upload", err)
	}

	if e.dispatcher == nil {
		return stageError("distillation dispatch", errors.New("no task dispatcher configured"))
	}
	subs := make([]task.Task, len(files))
	for i, f := range files {
		sub, err := NewDistillationTask(e, DistillationPayload{
			AgentID:   t.payload.AgentID,
			SourceID:  f.FileName,
			InputText: f.RawContent,
		})
		if err != nil {
			return stageError("distillation dispatch", err)
		}
		subs[i] = sub
	}
	if err := task.FireAndForget(ctx, e.dispatcher, subs); err != nil {
		return stageError("distillation dispatch", err)
	}

	log.Info("brand-knowledge workflow completed",
		slog.Int("chunk_count", len(chunks)),
		slog.Int("distillation_runs", len(files)))
	return nil
}

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Payload validation errors for content generation
var (
	ErrEmptyContentID = errors.New("content ID cannot be empty")
)

// ContentGenerationPayload is the input for one content-generation run.
type ContentGenerationPayload struct {
	AgentID   uuid.UUID             `json:"agent_id"`
	ContentID uuid.UUID             `json:"content_id"`
	Request   domain.ContentRequest `json:"request"`
}

// ContentGenerationTask turns an approved content request into a draft
// article: fetch the agent, improve the brief with retrieved brand knowledge
// while searching the web for current context, generate the body, analyze it,
// and persist the result. The content record transitions to draft only with a
// non-empty body; on failure it transitions to failed, on shutdown to
// cancelled.
type ContentGenerationTask struct {
	id      uuid.UUID
	payload ContentGenerationPayload
	engine  *Engine
	status  task.TaskStatus
}

// Verify ContentGenerationTask implements task.Task
var _ task.ScopedTask = (*ContentGenerationTask)(nil)

// NewContentGenerationTask creates a content-generation task for the given
// agent, content record and request.
func NewContentGenerationTask(engine *Engine, payload ContentGenerationPayload) (*ContentGenerationTask, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if payload.AgentID == uuid.Nil {
		return nil, ErrEmptyAgentID
	}
	if payload.ContentID == uuid.Nil {
		return nil, ErrEmptyContentID
	}

	return &ContentGenerationTask{
		id:      uuid.New(),
		payload: payload,
		engine:  engine,
		status:  task.TaskStatusPending,
	}, nil
}

// newContentGenerationTaskFromRow rebuilds a persisted content-generation task.
func newContentGenerationTaskFromRow(
	engine *Engine,
	id uuid.UUID,
	raw []byte,
	status task.TaskStatus,
) (*ContentGenerationTask, error) {
	var payload ContentGenerationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content-generation payload: %w", err)
	}

	t, err := NewContentGenerationTask(engine, payload)
	if err != nil {
		return nil, err
	}
	t.id = id
	t.status = status
	return t, nil
}

// ID returns the task's unique identifier.
func (t *ContentGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *ContentGenerationTask) Type() string {
	return task.TaskTypeContentGeneration
}

// Payload returns the task data as a byte slice.
func (t *ContentGenerationTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		return []byte{}
	}
	return data
}

// Status returns the current task status.
func (t *ContentGenerationTask) Status() task.TaskStatus {
	return t.status
}

// TaskScope returns the agent this content is generated for.
func (t *ContentGenerationTask) TaskScope() task.Scope {
	return task.Scope{AgentID: t.payload.AgentID}
}

// Execute runs the content-generation workflow. On any failure after the
// record enters generating, the record's status is updated to a terminal
// state before the error is returned, so consumers never see a stuck
// generating row from a finished run.
func (t *ContentGenerationTask) Execute(ctx context.Context) error {
	e := t.engine
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("workflow", t.Type()),
		slog.String("agent_id", t.payload.AgentID.String()),
		slog.String("content_id", t.payload.ContentID.String()),
	)
	ctx = logger.WithLogger(ctx, log)

	log.Info("content-generation workflow started",
		slog.String("layout", string(t.payload.Request.Layout)),
		slog.Int("description_length", len(t.payload.Request.Description)))

	if err := t.run(ctx); err != nil {
		t.recordFailure(ctx, err)
		return err
	}
	return nil
}

func (t *ContentGenerationTask) run(ctx context.Context) error {
	e := t.engine
	log := logger.FromContextOrDefault(ctx, e.logger)

	agent, err := e.fetchAgent(ctx, t.payload.AgentID)
	if err != nil {
		return stageError("fetch-agent", err)
	}

	// Preconditions signal a caller or configuration error; they fail the
	// run before any model call is made and are never retried.
	if err := t.payload.Request.Validate(); err != nil {
		return precondition(err)
	}
	if strings.TrimSpace(t.payload.Request.Description) == "" {
		return precondition(ErrEmptyDescription)
	}
	if !agent.HasPurpose() {
		return precondition(ErrMissingPurpose)
	}

	if err := e.contents.UpdateStatus(ctx, t.payload.ContentID, domain.ContentStatusGenerating); err != nil {
		log.Warn("failed to mark content generating",
			slog.String("error", err.Error()))
	}

	// Brief improvement and web search are independent; they run
	// concurrently and either failure fails the run.
	var (
		improvedBrief string
		knowledge     []string
		searchContext string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		improvedBrief, knowledge, err = e.improveBrief(
			gctx, t.payload.AgentID, agent.Persona.Purpose, t.payload.Request.Description)
		if err != nil {
			return stageError("brief improvement", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		searchContext, err = e.webSearch(gctx, t.payload.Request.Description)
		if err != nil {
			return stageError("web search", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	brandContext := strings.Join(knowledge, "\n\n")
	body, err := e.generateContent(ctx, agent, t.payload.Request, improvedBrief, brandContext, searchContext)
	if err != nil {
		return stageError("generation", err)
	}

	stats, meta, err := e.analyzeContent(ctx, body)
	if err != nil {
		return stageError("analysis", err)
	}

	_, err = task.Retry(ctx, e.retry, "save-content", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.contents.SaveGenerated(ctx, t.payload.ContentID, body, stats, meta)
	})
	if err != nil {
		return stageError("persistence", err)
	}

	log.Info("content-generation workflow completed",
		slog.Int("word_count", stats.WordCount))
	return nil
}

// recordFailure writes the terminal status for a failed run. The write uses a
// fresh context so it still lands when the run failed due to cancellation.
func (t *ContentGenerationTask) recordFailure(ctx context.Context, runErr error) {
	e := t.engine
	log := logger.FromContextOrDefault(ctx, e.logger)

	status := domain.ContentStatusFailed
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		status = domain.ContentStatusCancelled
	}

	statusCtx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if err := e.contents.UpdateStatus(statusCtx, t.payload.ContentID, status); err != nil {
		log.Error("failed to record content terminal status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

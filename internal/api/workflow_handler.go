package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/draftmill/draftmill-api/internal/api/shared"
	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/events"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/draftmill/draftmill-api/internal/workflow"
	"github.com/google/uuid"
)

// Handler construction errors
var (
	ErrNilEmitter    = errors.New("event emitter cannot be nil")
	ErrNilTaskReader = errors.New("task status reader cannot be nil")
)

// TaskStatusReader reports the state of background workflow runs for one
// agent and source. Satisfied by the postgres task store.
type TaskStatusReader interface {
	CountByScope(ctx context.Context, taskType string, scope task.Scope) (task.StatusCounts, error)
}

// WorkflowHandler exposes the workflow trigger endpoints. Each endpoint
// validates the body, emits a workflow-request event and returns 202; the
// run itself executes asynchronously through the task runner. The status
// endpoint reads the tasks table to report fan-out completion.
type WorkflowHandler struct {
	emitter events.EventEmitter
	tasks   TaskStatusReader
	logger  *slog.Logger
}

// NewWorkflowHandler creates a WorkflowHandler that emits through the given
// emitter and reads run status through the given reader.
func NewWorkflowHandler(emitter events.EventEmitter, tasks TaskStatusReader, log *slog.Logger) (*WorkflowHandler, error) {
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if tasks == nil {
		return nil, ErrNilTaskReader
	}
	if log == nil {
		log = slog.Default()
	}

	return &WorkflowHandler{
		emitter: emitter,
		tasks:   tasks,
		logger:  log.With(slog.String("component", "workflow_handler")),
	}, nil
}

// StartBrandKnowledge handles POST /workflows/brand-knowledge.
func (h *WorkflowHandler) StartBrandKnowledge(w http.ResponseWriter, r *http.Request) {
	var req BrandKnowledgeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	h.emit(w, r, task.TaskTypeBrandKnowledge, workflow.BrandKnowledgePayload{
		AgentID:    uuid.MustParse(req.AgentID),
		WebsiteURL: req.WebsiteURL,
	})
}

// StartKnowledgeDistillation handles POST /workflows/knowledge-distillation.
func (h *WorkflowHandler) StartKnowledgeDistillation(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeDistillationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	h.emit(w, r, task.TaskTypeKnowledgeDistillation, workflow.DistillationPayload{
		AgentID:   uuid.MustParse(req.AgentID),
		SourceID:  req.SourceID,
		InputText: req.InputText,
	})
}

// StartContentGeneration handles POST /workflows/content-generation.
func (h *WorkflowHandler) StartContentGeneration(w http.ResponseWriter, r *http.Request) {
	var req ContentGenerationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	h.emit(w, r, task.TaskTypeContentGeneration, workflow.ContentGenerationPayload{
		AgentID:   uuid.MustParse(req.AgentID),
		ContentID: uuid.MustParse(req.ContentID),
		Request: domain.ContentRequest{
			Description: req.Description,
			Layout:      domain.ContentLayout(req.Layout),
		},
	})
}

// Status handles GET /workflows/status. It reports the distillation runs for
// one agent, optionally narrowed to one knowledge source: brand knowledge is
// ready once every dispatched run has completed and none failed. This is the
// completion signal for the fire-and-continue fan-out, which the triggering
// workflow itself never waits on.
func (h *WorkflowHandler) Status(w http.ResponseWriter, r *http.Request) {
	agentID, err := uuid.Parse(r.URL.Query().Get("agent_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid or missing agent_id")
		return
	}
	sourceID := r.URL.Query().Get("source_id")

	counts, err := h.tasks.CountByScope(r.Context(), task.TaskTypeKnowledgeDistillation, task.Scope{
		AgentID:  agentID,
		SourceID: sourceID,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to read workflow status", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, WorkflowStatusResponse{
		AgentID:        agentID.String(),
		SourceID:       sourceID,
		Runs:           counts,
		KnowledgeReady: counts.Settled() && counts.Completed > 0 && counts.Failed == 0,
	})
}

// Health handles GET /healthz.
func (h *WorkflowHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// emit builds and emits the workflow-request event and writes the response.
func (h *WorkflowHandler) emit(w http.ResponseWriter, r *http.Request, workflowType string, payload any) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	event, err := events.NewWorkflowRequestEvent(workflowType, payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create workflow request", err)
		return
	}

	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to start workflow", err)
		return
	}

	log.Info("workflow run accepted",
		slog.String("workflow", workflowType),
		slog.String("event_id", event.ID.String()))

	shared.RespondWithJSON(w, r, http.StatusAccepted, WorkflowAcceptedResponse{
		Workflow: workflowType,
		EventID:  event.ID.String(),
	})
}

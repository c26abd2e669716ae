package api

import "github.com/draftmill/draftmill-api/internal/task"

// BrandKnowledgeRequest is the request body for starting a brand-knowledge
// workflow run.
type BrandKnowledgeRequest struct {
	AgentID    string `json:"agent_id"    validate:"required,uuid"`
	WebsiteURL string `json:"website_url" validate:"required,url"`
}

// KnowledgeDistillationRequest is the request body for starting a
// knowledge-distillation workflow run.
type KnowledgeDistillationRequest struct {
	AgentID   string `json:"agent_id"   validate:"required,uuid"`
	SourceID  string `json:"source_id"  validate:"required"`
	InputText string `json:"input_text" validate:"required"`
}

// ContentGenerationRequest is the request body for starting a
// content-generation workflow run.
type ContentGenerationRequest struct {
	AgentID     string `json:"agent_id"    validate:"required,uuid"`
	ContentID   string `json:"content_id"  validate:"required,uuid"`
	Description string `json:"description" validate:"required"`
	Layout      string `json:"layout"      validate:"required,oneof=tutorial article changelog"`
}

// WorkflowAcceptedResponse is returned when a workflow run was accepted.
// The run executes asynchronously; its progress is tracked in the tasks
// table under the returned event ID's task.
type WorkflowAcceptedResponse struct {
	Workflow string `json:"workflow"`
	EventID  string `json:"event_id"`
}

// WorkflowStatusResponse reports the distillation runs for one agent and
// optional source. KnowledgeReady is true once every run has completed and
// none failed.
type WorkflowStatusResponse struct {
	AgentID        string            `json:"agent_id"`
	SourceID       string            `json:"source_id,omitempty"`
	Runs           task.StatusCounts `json:"runs"`
	KnowledgeReady bool              `json:"knowledge_ready"`
}

// HealthResponse is the healthz response body.
type HealthResponse struct {
	Status string `json:"status"`
}

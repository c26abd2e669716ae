// Package events decouples the API surface from the task runner: handlers
// emit workflow-request events, and a registered handler turns them into
// durable tasks. Neither side imports the other.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkflowRequestEvent represents a request to start a workflow run. It
// carries the workflow type and its payload without direct dependencies on
// the task or workflow packages.
type WorkflowRequestEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates the workflow type that should be started
	Type string `json:"type"`

	// Payload contains the workflow-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *WorkflowRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewWorkflowRequestEvent creates a new WorkflowRequestEvent with the
// specified workflow type and payload.
func NewWorkflowRequestEvent(workflowType string, payload any) (*WorkflowRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &WorkflowRequestEvent{
		ID:        uuid.New(),
		Type:      workflowType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *WorkflowRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the API layer to publish events without direct knowledge of
// handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *WorkflowRequestEvent) error
}

package store

import (
	"context"
	"database/sql"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/google/uuid"
)

// AgentStore defines the interface for agent data persistence.
type AgentStore interface {
	// GetByID retrieves an agent by its unique ID, including its uploaded
	// file records (without raw content).
	// Returns ErrAgentNotFound if the agent does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error)

	// Update saves changes to an existing agent.
	// Returns ErrAgentNotFound if the agent does not exist.
	// Returns validation errors if the agent data is invalid.
	Update(ctx context.Context, agent *domain.Agent) error

	// AppendUploadedFiles records uploaded file metadata against the agent.
	// Raw content must already be stripped from the records; the store rejects
	// files that still carry it. Appending the same file name twice upserts
	// rather than duplicating, so retried uploads are safe.
	AppendUploadedFiles(ctx context.Context, agentID uuid.UUID, files []domain.UploadedFile) error

	// WithTx returns a new AgentStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) AgentStore
}

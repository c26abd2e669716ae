package store

import (
	"context"
	"database/sql"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/google/uuid"
)

// ContentStore defines the interface for generated content persistence.
type ContentStore interface {
	// Create saves a new (empty, pending) content record.
	// Returns validation errors if the content is invalid.
	Create(ctx context.Context, content *domain.GeneratedContent) error

	// GetByID retrieves a content record by its unique ID.
	// Returns ErrContentNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneratedContent, error)

	// SaveGenerated writes the generated body, stats and metadata to the
	// record and transitions its status to draft. The write is keyed by the
	// content ID, so retries overwrite rather than duplicate.
	// Returns domain.ErrEmptyContentBody if the body is empty; a draft is
	// never persisted without a body.
	// Returns ErrContentNotFound if the record does not exist.
	SaveGenerated(ctx context.Context, id uuid.UUID, body string, stats domain.ContentStats, meta domain.ContentMeta) error

	// UpdateStatus updates the status of an existing content record.
	// Returns ErrContentNotFound if the record does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContentStatus) error

	// ListByAgent retrieves content records for the given agent, newest first.
	// Returns an empty slice if none match.
	ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*domain.GeneratedContent, error)

	// WithTx returns a new ContentStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) ContentStore
}

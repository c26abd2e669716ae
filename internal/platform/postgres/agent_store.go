package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/google/uuid"
)

// PostgresAgentStore implements the store.AgentStore interface using PostgreSQL.
type PostgresAgentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Verify PostgresAgentStore implements store.AgentStore
var _ store.AgentStore = (*PostgresAgentStore)(nil)

// NewPostgresAgentStore creates a new PostgreSQL implementation of the
// AgentStore interface. Accepts a database connection or transaction that
// implements the store.DBTX interface, and a logger. If logger is nil, a
// default logger will be used.
func NewPostgresAgentStore(db store.DBTX, logger *slog.Logger) *PostgresAgentStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAgentStore{
		db:     db,
		logger: logger.With(slog.String("component", "agent_store")),
	}
}

// GetByID implements store.AgentStore.GetByID.
// It retrieves an agent by its unique ID, along with the metadata of its
// uploaded files (raw content is never stored, so it is never returned).
func (s *PostgresAgentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("getting agent by ID", slog.String("agent_id", id.String()))

	query := `
		SELECT id, system_prompt, persona, created_at, updated_at
		FROM agents
		WHERE id = $1
	`

	agent := &domain.Agent{}
	var personaJSON []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&agent.ID,
		&agent.SystemPrompt,
		&personaJSON,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("agent not found", slog.String("agent_id", id.String()))
			return nil, store.ErrAgentNotFound
		}
		log.Error("failed to get agent by ID",
			slog.String("agent_id", id.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get agent: %w", MapError(err))
	}

	if err := json.Unmarshal(personaJSON, &agent.Persona); err != nil {
		log.Error("failed to unmarshal agent persona",
			slog.String("agent_id", id.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to unmarshal agent persona: %w", err)
	}

	files, err := s.getUploadedFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	agent.UploadedFiles = files

	return agent, nil
}

// Update implements store.AgentStore.Update.
// It saves changes to an existing agent after validating its data.
func (s *PostgresAgentStore) Update(ctx context.Context, agent *domain.Agent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("updating agent", slog.String("agent_id", agent.ID.String()))

	if err := agent.Validate(); err != nil {
		log.Warn("agent validation failed during update",
			slog.String("agent_id", agent.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	personaJSON, err := json.Marshal(agent.Persona)
	if err != nil {
		return fmt.Errorf("failed to marshal agent persona: %w", err)
	}

	agent.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE agents
		SET system_prompt = $2, persona = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		agent.ID,
		agent.SystemPrompt,
		personaJSON,
		agent.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update agent",
			slog.String("agent_id", agent.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update agent: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "agent"); err != nil {
		return store.ErrAgentNotFound
	}

	return nil
}

// AppendUploadedFiles implements store.AgentStore.AppendUploadedFiles.
// File records are upserted by (agent_id, file_name) so retried uploads do
// not duplicate rows. Records that still carry raw content are rejected; the
// object store is the source of truth for bytes.
func (s *PostgresAgentStore) AppendUploadedFiles(
	ctx context.Context,
	agentID uuid.UUID,
	files []domain.UploadedFile,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("appending uploaded files",
		slog.String("agent_id", agentID.String()),
		slog.Int("file_count", len(files)))

	if len(files) == 0 {
		return nil
	}

	for _, f := range files {
		if err := f.Validate(); err != nil {
			return err
		}
		if f.RawContent != "" {
			return fmt.Errorf(
				"%w: uploaded file %q still carries raw content",
				store.ErrInvalidEntity,
				f.FileName,
			)
		}
	}

	// The batch is all-or-nothing: when the store holds a plain connection
	// pool, the upserts run inside one transaction so a mid-batch failure
	// leaves no partial file list behind.
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return appendUploadedFiles(ctx, tx, log, agentID, files)
		})
	}
	return appendUploadedFiles(ctx, s.db, log, agentID, files)
}

// appendUploadedFiles upserts the file rows on the given executor, which may
// be a pool, an existing transaction, or one opened by AppendUploadedFiles.
func appendUploadedFiles(
	ctx context.Context,
	db store.DBTX,
	log *slog.Logger,
	agentID uuid.UUID,
	files []domain.UploadedFile,
) error {
	query := `
		INSERT INTO uploaded_files (agent_id, file_name, file_url, uploaded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent_id, file_name)
		DO UPDATE SET file_url = EXCLUDED.file_url, uploaded_at = EXCLUDED.uploaded_at
	`

	for _, f := range files {
		if _, err := db.ExecContext(ctx, query,
			agentID,
			f.FileName,
			f.FileURL,
			f.UploadedAt,
		); err != nil {
			log.Error("failed to append uploaded file",
				slog.String("agent_id", agentID.String()),
				slog.String("file_name", f.FileName),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to append uploaded file: %w", MapError(err))
		}
	}

	return nil
}

// WithTx implements store.AgentStore.WithTx.
// It returns a new AgentStore that uses the provided transaction for
// all database operations, enabling atomicity across multiple store calls.
func (s *PostgresAgentStore) WithTx(tx *sql.Tx) store.AgentStore {
	return &PostgresAgentStore{
		db:     tx,
		logger: s.logger,
	}
}

// getUploadedFiles loads the uploaded-file metadata for an agent, oldest first.
func (s *PostgresAgentStore) getUploadedFiles(
	ctx context.Context,
	agentID uuid.UUID,
) ([]domain.UploadedFile, error) {
	query := `
		SELECT file_name, file_url, uploaded_at
		FROM uploaded_files
		WHERE agent_id = $1
		ORDER BY uploaded_at ASC, file_name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploaded files: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var files []domain.UploadedFile
	for rows.Next() {
		var f domain.UploadedFile
		if err := rows.Scan(&f.FileName, &f.FileURL, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan uploaded file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploaded file rows: %w", err)
	}

	return files, nil
}

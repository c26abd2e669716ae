package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/google/uuid"
)

// PostgresContentStore implements the store.ContentStore interface using PostgreSQL.
type PostgresContentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Verify PostgresContentStore implements store.ContentStore
var _ store.ContentStore = (*PostgresContentStore)(nil)

// NewPostgresContentStore creates a new PostgreSQL implementation of the
// ContentStore interface. Accepts a database connection or transaction that
// implements the store.DBTX interface, and a logger. If logger is nil, a
// default logger will be used.
func NewPostgresContentStore(db store.DBTX, logger *slog.Logger) *PostgresContentStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresContentStore{
		db:     db,
		logger: logger.With(slog.String("component", "content_store")),
	}
}

// Create implements store.ContentStore.Create.
// It saves a new content record after validating its data.
func (s *PostgresContentStore) Create(ctx context.Context, content *domain.GeneratedContent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("creating content record",
		slog.String("content_id", content.ID.String()),
		slog.String("agent_id", content.AgentID.String()))

	if err := content.Validate(); err != nil {
		log.Warn("content validation failed during create",
			slog.String("content_id", content.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	requestJSON, err := json.Marshal(content.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal content request: %w", err)
	}

	query := `
		INSERT INTO contents (id, agent_id, request, body, stats, meta, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	statsJSON, err := json.Marshal(content.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal content stats: %w", err)
	}
	metaJSON, err := json.Marshal(content.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal content meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		content.ID,
		content.AgentID,
		requestJSON,
		content.Body,
		statsJSON,
		metaJSON,
		content.Status,
		content.CreatedAt,
		content.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create content record",
			slog.String("content_id", content.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create content record: %w", MapError(err))
	}

	return nil
}

// GetByID implements store.ContentStore.GetByID.
func (s *PostgresContentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneratedContent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("getting content by ID", slog.String("content_id", id.String()))

	query := `
		SELECT id, agent_id, request, body, stats, meta, status, created_at, updated_at
		FROM contents
		WHERE id = $1
	`

	content, err := s.scanContent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("content not found", slog.String("content_id", id.String()))
			return nil, store.ErrContentNotFound
		}
		log.Error("failed to get content by ID",
			slog.String("content_id", id.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get content: %w", MapError(err))
	}

	return content, nil
}

// SaveGenerated implements store.ContentStore.SaveGenerated.
// The write is keyed by the content ID so a retried workflow overwrites the
// same record instead of duplicating it. A draft is never persisted without a
// body.
func (s *PostgresContentStore) SaveGenerated(
	ctx context.Context,
	id uuid.UUID,
	body string,
	stats domain.ContentStats,
	meta domain.ContentMeta,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("saving generated content", slog.String("content_id", id.String()))

	if strings.TrimSpace(body) == "" {
		return domain.ErrEmptyContentBody
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal content stats: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal content meta: %w", err)
	}

	query := `
		UPDATE contents
		SET body = $2, stats = $3, meta = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		id,
		body,
		statsJSON,
		metaJSON,
		domain.ContentStatusDraft,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to save generated content",
			slog.String("content_id", id.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save generated content: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "content"); err != nil {
		return store.ErrContentNotFound
	}

	log.Info("content saved as draft", slog.String("content_id", id.String()))
	return nil
}

// UpdateStatus implements store.ContentStore.UpdateStatus.
func (s *PostgresContentStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.ContentStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("updating content status",
		slog.String("content_id", id.String()),
		slog.String("status", string(status)))

	query := `
		UPDATE contents
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		log.Error("failed to update content status",
			slog.String("content_id", id.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update content status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "content"); err != nil {
		return store.ErrContentNotFound
	}

	return nil
}

// ListByAgent implements store.ContentStore.ListByAgent.
func (s *PostgresContentStore) ListByAgent(
	ctx context.Context,
	agentID uuid.UUID,
	limit, offset int,
) ([]*domain.GeneratedContent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("listing content by agent",
		slog.String("agent_id", agentID.String()),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, agent_id, request, body, stats, meta, status, created_at, updated_at
		FROM contents
		WHERE agent_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, agentID, limit, offset)
	if err != nil {
		log.Error("failed to list content by agent",
			slog.String("agent_id", agentID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list content: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	contents := []*domain.GeneratedContent{}
	for rows.Next() {
		content, err := s.scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

// WithTx implements store.ContentStore.WithTx.
// It returns a new ContentStore that uses the provided transaction for
// all database operations, enabling atomicity across multiple store calls.
func (s *PostgresContentStore) WithTx(tx *sql.Tx) store.ContentStore {
	return &PostgresContentStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts over *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresContentStore) scanContent(row rowScanner) (*domain.GeneratedContent, error) {
	content := &domain.GeneratedContent{}
	var requestJSON, statsJSON, metaJSON []byte

	if err := row.Scan(
		&content.ID,
		&content.AgentID,
		&requestJSON,
		&content.Body,
		&statsJSON,
		&metaJSON,
		&content.Status,
		&content.CreatedAt,
		&content.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(requestJSON, &content.Request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content request: %w", err)
	}
	if err := json.Unmarshal(statsJSON, &content.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content stats: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &content.Meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content meta: %w", err)
	}

	return content, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
)

// TaskFactory rebuilds an executable task from a persisted row. The runner
// recovers pending tasks at startup; rows carry only type and payload, so the
// factory is what reattaches the execution logic. Returning an error marks the
// row as unrecoverable.
type TaskFactory func(id uuid.UUID, taskType string, payload []byte, status task.TaskStatus) (task.Task, error)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db      store.DBTX
	logger  *slog.Logger
	factory TaskFactory
}

// Verify PostgresTaskStore implements task.TaskStore
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. The factory is required for recovery; without it,
// loaded rows cannot be executed.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger, factory TaskFactory) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:      db,
		logger:  logger.With(slog.String("component", "task_store")),
		factory: factory,
	}
}

// SaveTask persists a task to the database. Tasks that expose a scope have
// their agent and source recorded alongside the row so fan-out completion is
// queryable later.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, agent_id, source_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var agentID, sourceID any
	if scoped, ok := t.(task.ScopedTask); ok {
		scope := scoped.TaskScope()
		if scope.AgentID != uuid.Nil {
			agentID = scope.AgentID
		}
		if scope.SourceID != "" {
			sourceID = scope.SourceID
		}
	}

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		agentID,
		sourceID,
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task: %w", MapError(err))
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database. A missing
// row is treated as a no-op so status writes during shutdown never fail the
// shutdown path.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		taskID,
		status,
		errorMsg,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status",
			slog.String("task_id", taskID.String()))
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// filtered to those older than the given duration.
func (s *PostgresTaskStore) GetProcessingTasks(
	ctx context.Context,
	olderThan time.Duration,
) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// CountByScope returns per-status counts of tasks of the given type for one
// agent, optionally narrowed to one source.
func (s *PostgresTaskStore) CountByScope(
	ctx context.Context,
	taskType string,
	scope task.Scope,
) (task.StatusCounts, error) {
	query := `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE type = $1 AND agent_id = $2
	`
	args := []any{taskType, scope.AgentID}
	if scope.SourceID != "" {
		query += ` AND source_id = $3`
		args = append(args, scope.SourceID)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return task.StatusCounts{}, fmt.Errorf("failed to count tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var counts task.StatusCounts
	for rows.Next() {
		var (
			status task.TaskStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return task.StatusCounts{}, fmt.Errorf("failed to scan task count: %w", err)
		}
		switch status {
		case task.TaskStatusPending:
			counts.Pending = n
		case task.TaskStatusProcessing:
			counts.Processing = n
		case task.TaskStatusCompleted:
			counts.Completed = n
		case task.TaskStatusFailed:
			counts.Failed = n
		case task.TaskStatusCancelled:
			counts.Cancelled = n
		}
	}
	if err := rows.Err(); err != nil {
		return task.StatusCounts{}, fmt.Errorf("error iterating task counts: %w", err)
	}

	return counts, nil
}

// WithTx returns a new TaskStore that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db:      tx,
		logger:  s.logger,
		factory: s.factory,
	}
}

// getTasksByStatus loads tasks by status with an optional age filter and
// rehydrates each row through the factory. Rows the factory cannot rebuild
// are logged and skipped rather than failing the whole recovery.
func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []any

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []any{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []any{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		var (
			id         uuid.UUID
			taskType   string
			payload    []byte
			taskStatus task.TaskStatus
		)
		if err := rows.Scan(&id, &taskType, &payload, &taskStatus); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		if s.factory == nil {
			return nil, fmt.Errorf("cannot rebuild task %s: no task factory configured", id)
		}

		t, err := s.factory(id, taskType, payload, taskStatus)
		if err != nil {
			log.Error("failed to rebuild task from row, skipping",
				slog.String("task_id", id.String()),
				slog.String("task_type", taskType),
				slog.String("error", err.Error()))
			continue
		}

		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Task type constants, one per workflow the runner can execute.
const (
	// TaskTypeBrandKnowledge builds an agent's brand knowledge from its website.
	TaskTypeBrandKnowledge = "auto_brand_knowledge"

	// TaskTypeKnowledgeDistillation distills input text into vector-store chunks.
	TaskTypeKnowledgeDistillation = "knowledge_distillation"

	// TaskTypeContentGeneration generates one article from a content request.
	TaskTypeContentGeneration = "content_generation"
)

// Task represents a unit of background work to be processed.
//
// Execute must be idempotent: given the same payload, re-invocation must not
// produce duplicate external side effects beyond last-write-wins or natural
// upsert semantics. That contract is what keeps retries and recovery safe.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic. The context is cancelled when the runner
	// shuts down; implementations should stop work and return ctx.Err().
	Execute(ctx context.Context) error
}

// Scope identifies whose work a task performs: the agent it runs for and,
// for knowledge work, the source the knowledge came from.
type Scope struct {
	AgentID  uuid.UUID
	SourceID string
}

// ScopedTask is implemented by tasks that run on behalf of one agent. The
// scope is persisted alongside the task row, which is what makes completion
// of fire-and-continue fan-outs queryable per agent and source.
type ScopedTask interface {
	Task

	// TaskScope returns the agent (and optional source) this task serves.
	TaskScope() Scope
}

// StatusCounts summarizes how many tasks of one scope sit in each status.
type StatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
}

// Settled reports whether no task in the scope is still waiting or running.
func (c StatusCounts) Settled() bool {
	return c.Pending == 0 && c.Processing == 0
}

// Dispatcher submits a task for asynchronous execution. Satisfied by
// *TaskRunner.
type Dispatcher interface {
	Submit(ctx context.Context, t Task) error
}

// TaskQueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue.
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue
// allowing services to enqueue tasks for processing.
type TaskQueueWriter interface {
	// Enqueue adds a task to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission
	Close()
}

// TaskStore defines the interface for persisting tasks.
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks retrieves tasks with "processing" status.
	// If olderThan is non-zero, only returns tasks that have been in this
	// state longer than the specified duration.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)

	// CountByScope returns per-status counts of tasks of the given type
	// scoped to one agent (and one source, when scope.SourceID is non-empty).
	// This is how completion of fire-and-continue fan-outs is observed: all
	// distillation runs for an agent/source have finished once the counts
	// are settled.
	CountByScope(ctx context.Context, taskType string, scope Scope) (StatusCounts, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}

package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTaskStore is an in-memory TaskStore for runner tests.
type memoryTaskStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]Task
	statuses map[uuid.UUID]TaskStatus
	messages map[uuid.UUID]string
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{
		tasks:    make(map[uuid.UUID]Task),
		statuses: make(map[uuid.UUID]TaskStatus),
		messages: make(map[uuid.UUID]string),
	}
}

func (s *memoryTaskStore) SaveTask(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID()] = t
	s.statuses[t.ID()] = TaskStatusPending
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status TaskStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	s.messages[id] = msg
	return nil
}

func (s *memoryTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for id, status := range s.statuses {
		if status == TaskStatusPending {
			out = append(out, s.tasks[id])
		}
	}
	return out, nil
}

func (s *memoryTaskStore) GetProcessingTasks(_ context.Context, _ time.Duration) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for id, status := range s.statuses {
		if status == TaskStatusProcessing {
			out = append(out, s.tasks[id])
		}
	}
	return out, nil
}

func (s *memoryTaskStore) CountByScope(_ context.Context, taskType string, scope Scope) (StatusCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts StatusCounts
	for id, st := range s.statuses {
		t := s.tasks[id]
		if t.Type() != taskType {
			continue
		}
		scoped, ok := t.(ScopedTask)
		if !ok || scoped.TaskScope().AgentID != scope.AgentID {
			continue
		}
		if scope.SourceID != "" && scoped.TaskScope().SourceID != scope.SourceID {
			continue
		}
		switch st {
		case TaskStatusPending:
			counts.Pending++
		case TaskStatusProcessing:
			counts.Processing++
		case TaskStatusCompleted:
			counts.Completed++
		case TaskStatusFailed:
			counts.Failed++
		case TaskStatusCancelled:
			counts.Cancelled++
		}
	}
	return counts, nil
}

func (s *memoryTaskStore) WithTx(_ *sql.Tx) TaskStore { return s }

func (s *memoryTaskStore) statusOf(id uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

// funcTask runs an injected function as its Execute body.
type funcTask struct {
	id  uuid.UUID
	typ string
	fn  func(ctx context.Context) error
}

func newFuncTask(typ string, fn func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), typ: typ, fn: fn}
}

func (t *funcTask) ID() uuid.UUID                   { return t.id }
func (t *funcTask) Type() string                    { return t.typ }
func (t *funcTask) Payload() []byte                 { return nil }
func (t *funcTask) Status() TaskStatus              { return TaskStatusPending }
func (t *funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

func testRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              10,
		StuckTaskAge:           time.Minute,
		StuckTaskCheckInterval: time.Hour, // keep the monitor quiet in tests
	}
}

func waitForStatus(t *testing.T, store *memoryTaskStore, id uuid.UUID, want TaskStatus) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("task %s never reached status %s (last: %s)", id, want, store.statusOf(id))
		case <-time.After(10 * time.Millisecond):
			if store.statusOf(id) == want {
				return
			}
		}
	}
}

func TestTaskRunner_CompletesTask(t *testing.T) {
	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	done := make(chan struct{})
	tk := newFuncTask("ok", func(_ context.Context) error {
		close(done)
		return nil
	})

	require.NoError(t, runner.Submit(context.Background(), tk))

	<-done
	waitForStatus(t, store, tk.ID(), TaskStatusCompleted)
}

func TestTaskRunner_RecordsFailure(t *testing.T) {
	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, testRunnerConfig(), nil)

	var handled error
	var mu sync.Mutex
	runner.SetErrorHandler(func(_ Task, err error) {
		mu.Lock()
		handled = err
		mu.Unlock()
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	boom := errors.New("crawl returned zero results")
	tk := newFuncTask("fail", func(_ context.Context) error { return boom })

	require.NoError(t, runner.Submit(context.Background(), tk))
	waitForStatus(t, store, tk.ID(), TaskStatusFailed)

	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, handled, boom)
}

func TestTaskRunner_StopCancelsInFlightTask(t *testing.T) {
	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, testRunnerConfig(), nil)
	require.NoError(t, runner.Start())

	started := make(chan struct{})
	tk := newFuncTask("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	require.NoError(t, runner.Submit(context.Background(), tk))
	<-started

	runner.Stop()
	assert.Equal(t, TaskStatusCancelled, store.statusOf(tk.ID()))
}

func TestTaskRunner_RecoversPendingTasks(t *testing.T) {
	store := newMemoryTaskStore()

	done := make(chan struct{})
	tk := newFuncTask("recovered", func(_ context.Context) error {
		close(done)
		return nil
	})
	// Simulate a task persisted by a previous process that never ran.
	require.NoError(t, store.SaveTask(context.Background(), tk))

	runner := NewTaskRunner(store, testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	<-done
	waitForStatus(t, store, tk.ID(), TaskStatusCompleted)
}

func TestTaskRunner_ResetsProcessingTasksOnRecover(t *testing.T) {
	store := newMemoryTaskStore()

	done := make(chan struct{})
	tk := newFuncTask("interrupted", func(_ context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, store.SaveTask(context.Background(), tk))
	// Simulate a crash mid-processing.
	require.NoError(t, store.UpdateTaskStatus(context.Background(), tk.ID(), TaskStatusProcessing, ""))

	runner := NewTaskRunner(store, testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	<-done
	waitForStatus(t, store, tk.ID(), TaskStatusCompleted)
}

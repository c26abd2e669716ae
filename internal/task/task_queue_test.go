package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTask is a minimal Task for queue tests.
type stubTask struct {
	id uuid.UUID
}

func newStubTask() *stubTask                          { return &stubTask{id: uuid.New()} }
func (t *stubTask) ID() uuid.UUID                     { return t.id }
func (t *stubTask) Type() string                      { return "stub" }
func (t *stubTask) Payload() []byte                   { return nil }
func (t *stubTask) Status() TaskStatus                { return TaskStatusPending }
func (t *stubTask) Execute(_ context.Context) error   { return nil }

func TestTaskQueue_EnqueueAndConsume(t *testing.T) {
	q := NewTaskQueue(2, nil)

	first := newStubTask()
	require.NoError(t, q.Enqueue(first))

	got := <-q.GetChannel()
	assert.Equal(t, first.ID(), got.ID())
}

func TestTaskQueue_Full(t *testing.T) {
	q := NewTaskQueue(1, nil)

	require.NoError(t, q.Enqueue(newStubTask()))

	err := q.Enqueue(newStubTask())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTaskQueue_Closed(t *testing.T) {
	q := NewTaskQueue(1, nil)
	q.Close()

	err := q.Enqueue(newStubTask())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestTaskQueue_DoubleCloseIsSafe(t *testing.T) {
	q := NewTaskQueue(1, nil)
	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}

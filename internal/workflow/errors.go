package workflow

import (
	"errors"
	"fmt"

	"github.com/draftmill/draftmill-api/internal/task"
)

// Common workflow errors
var (
	// ErrPrecondition marks a caller or configuration error detected before
	// any external work starts. Precondition failures are never retried.
	ErrPrecondition = errors.New("workflow precondition failed")

	// ErrEmptyDescription indicates the content request carries no description.
	ErrEmptyDescription = errors.New("content request description is empty")

	// ErrMissingPurpose indicates the agent's persona has no configured purpose.
	ErrMissingPurpose = errors.New("agent persona has no configured purpose")

	// ErrEmptyAnalysis indicates both metadata analyses of a generated body
	// came back empty.
	ErrEmptyAnalysis = errors.New("content analysis produced no statistics and no metadata")
)

// precondition wraps err as a non-retryable precondition failure.
func precondition(err error) error {
	return task.NonRetryable(fmt.Errorf("%w: %w", ErrPrecondition, err))
}

// stageError adds the failing stage to err so operators can tell which part
// of a workflow run failed.
func stageError(stage string, err error) error {
	return fmt.Errorf("%s stage failed: %w", stage, err)
}

package workflow

import (
	"fmt"

	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
)

// BuildTask rebuilds an executable workflow task from a persisted row. It is
// the engine's task factory: the task store calls it during runner recovery
// to reattach execution logic to stored type and payload.
func (e *Engine) BuildTask(id uuid.UUID, taskType string, payload []byte, status task.TaskStatus) (task.Task, error) {
	switch taskType {
	case task.TaskTypeBrandKnowledge:
		return newBrandKnowledgeTaskFromRow(e, id, payload, status)
	case task.TaskTypeKnowledgeDistillation:
		return newDistillationTaskFromRow(e, id, payload, status)
	case task.TaskTypeContentGeneration:
		return newContentGenerationTaskFromRow(e, id, payload, status)
	default:
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
}

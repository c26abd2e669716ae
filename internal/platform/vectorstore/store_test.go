package vectorstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentID_Deterministic(t *testing.T) {
	agentID := uuid.New()

	first := DocumentID(agentID, "chunk-001.md", "Acme builds widgets.")
	second := DocumentID(agentID, "chunk-001.md", "Acme builds widgets.")

	assert.Equal(t, first, second, "same inputs must map to the same document id")
	assert.Len(t, first, 64)
}

func TestDocumentID_DistinguishesInputs(t *testing.T) {
	agentID := uuid.New()
	base := DocumentID(agentID, "source", "text")

	assert.NotEqual(t, base, DocumentID(uuid.New(), "source", "text"))
	assert.NotEqual(t, base, DocumentID(agentID, "other-source", "text"))
	assert.NotEqual(t, base, DocumentID(agentID, "source", "other text"))
}

func TestDocumentID_FieldBoundaries(t *testing.T) {
	// The separator prevents ambiguous concatenations: ("ab", "c") must not
	// collide with ("a", "bc").
	agentID := uuid.New()
	assert.NotEqual(t,
		DocumentID(agentID, "ab", "c"),
		DocumentID(agentID, "a", "bc"))
}

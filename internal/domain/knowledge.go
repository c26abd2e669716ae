package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for knowledge entities
var (
	ErrEmptyChunkText     = errors.New("knowledge chunk text cannot be empty")
	ErrEmptyChunkAgentID  = errors.New("knowledge chunk agent ID cannot be empty")
	ErrEmptyChunkSourceID = errors.New("knowledge chunk source ID cannot be empty")
	ErrEmptyFileName      = errors.New("uploaded file name cannot be empty")
)

// KnowledgeChunk is a unit of distilled brand content destined for the vector
// store. Chunks are created by splitting a brand document or uploaded file,
// consumed by the distillation sub-workflow, and their lifecycle ends at
// vector-store insertion.
type KnowledgeChunk struct {
	Text     string    `json:"text"`
	AgentID  uuid.UUID `json:"agent_id"`
	SourceID string    `json:"source_id"`
}

// Validate checks if the KnowledgeChunk has valid data.
func (k KnowledgeChunk) Validate() error {
	if k.Text == "" {
		return ErrEmptyChunkText
	}

	if k.AgentID == uuid.Nil {
		return ErrEmptyChunkAgentID
	}

	if k.SourceID == "" {
		return ErrEmptyChunkSourceID
	}

	return nil
}

// UploadedFile records a brand-document chunk persisted to object storage.
// RawContent holds the chunk bytes only while the record is in flight; the
// DB-facing subset omits it, leaving the object store as the source of truth
// for bytes.
type UploadedFile struct {
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
	RawContent string    `json:"raw_content,omitempty"`
}

// Validate checks if the UploadedFile has valid data.
func (f UploadedFile) Validate() error {
	if f.FileName == "" {
		return ErrEmptyFileName
	}
	return nil
}

// WithoutRawContent returns a copy of the record with the raw bytes stripped,
// suitable for persisting to the database.
func (f UploadedFile) WithoutRawContent() UploadedFile {
	f.RawContent = ""
	return f
}

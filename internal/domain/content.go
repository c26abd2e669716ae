package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentStatus represents the lifecycle state of a piece of generated content
type ContentStatus string

// Possible content status values
const (
	ContentStatusPending    ContentStatus = "pending"
	ContentStatusGenerating ContentStatus = "generating"
	ContentStatusDraft      ContentStatus = "draft"
	ContentStatusFailed     ContentStatus = "failed"
	ContentStatusCancelled  ContentStatus = "cancelled"
)

// ContentLayout identifies the shape of a requested article
type ContentLayout string

// Possible content layout values
const (
	ContentLayoutTutorial  ContentLayout = "tutorial"
	ContentLayoutArticle   ContentLayout = "article"
	ContentLayoutChangelog ContentLayout = "changelog"
)

// Common validation errors for content entities
var (
	ErrEmptyContentID       = errors.New("content ID cannot be empty")
	ErrEmptyContentAgentID  = errors.New("content agent ID cannot be empty")
	ErrInvalidContentStatus = errors.New("invalid content status")
	ErrInvalidContentLayout = errors.New("invalid content layout")
	ErrEmptyContentBody     = errors.New("content body cannot be empty")
)

// ContentRequest is the input brief for one article. It is owned by the
// dashboard (created and edited there) and read-only to the pipeline.
type ContentRequest struct {
	Description string        `json:"description"`
	Layout      ContentLayout `json:"layout"`
}

// Validate checks that the request's layout is one of the known values.
// Description emptiness is a workflow precondition, not an entity invariant,
// because drafts of the brief legitimately start empty in the dashboard.
func (r ContentRequest) Validate() error {
	switch r.Layout {
	case ContentLayoutTutorial, ContentLayoutArticle, ContentLayoutChangelog:
		return nil
	default:
		return ErrInvalidContentLayout
	}
}

// ContentStats holds the statistics analysis of a generated article body.
type ContentStats struct {
	WordCount       int     `json:"word_count"`
	ReadTimeMinutes int     `json:"read_time_minutes"`
	QualityScore    float64 `json:"quality_score"`
}

// IsZero reports whether no statistics were produced.
func (s ContentStats) IsZero() bool {
	return s == ContentStats{}
}

// ContentMeta holds the metadata analysis of a generated article body.
type ContentMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Slug        string   `json:"slug"`
	Sources     []string `json:"sources"`
}

// IsZero reports whether no metadata was produced.
func (m ContentMeta) IsZero() bool {
	return m.Title == "" && m.Description == "" && m.Slug == "" &&
		len(m.Keywords) == 0 && len(m.Sources) == 0
}

// GeneratedContent is the pipeline's final artifact. The dashboard creates the
// record empty at content-request approval time; the pipeline mutates it
// exactly once at the end of the content-generation workflow, transitioning
// its status to draft.
type GeneratedContent struct {
	ID        uuid.UUID      `json:"id"`
	AgentID   uuid.UUID      `json:"agent_id"`
	Request   ContentRequest `json:"request"`
	Body      string         `json:"body"`
	Stats     ContentStats   `json:"stats"`
	Meta      ContentMeta    `json:"meta"`
	Status    ContentStatus  `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewGeneratedContent creates an empty content record for the given agent and
// request, in pending status. Returns an error if validation fails.
func NewGeneratedContent(agentID uuid.UUID, request ContentRequest) (*GeneratedContent, error) {
	content := &GeneratedContent{
		ID:        uuid.New(),
		AgentID:   agentID,
		Request:   request,
		Status:    ContentStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := content.Validate(); err != nil {
		return nil, err
	}

	return content, nil
}

// Validate checks if the GeneratedContent has valid data.
// Returns an error if any field fails validation.
func (c *GeneratedContent) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyContentID
	}

	if c.AgentID == uuid.Nil {
		return ErrEmptyContentAgentID
	}

	if !isValidContentStatus(c.Status) {
		return ErrInvalidContentStatus
	}

	return c.Request.Validate()
}

// MarkDraft records the generated body, stats and metadata and transitions the
// content to draft status. A draft with an empty or whitespace-only body is
// never allowed; consumers must not observe a draft without a body.
func (c *GeneratedContent) MarkDraft(body string, stats ContentStats, meta ContentMeta) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyContentBody
	}

	c.Body = body
	c.Stats = stats
	c.Meta = meta
	c.Status = ContentStatusDraft
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateStatus updates the content's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (c *GeneratedContent) UpdateStatus(status ContentStatus) error {
	if !isValidContentStatus(status) {
		return ErrInvalidContentStatus
	}

	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidContentStatus checks if the given status is a valid ContentStatus.
func isValidContentStatus(status ContentStatus) bool {
	switch status {
	case ContentStatusPending, ContentStatusGenerating, ContentStatusDraft,
		ContentStatusFailed, ContentStatusCancelled:
		return true
	default:
		return false
	}
}

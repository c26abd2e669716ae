package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Agent
var (
	ErrEmptyAgentID           = errors.New("agent ID cannot be empty")
	ErrEmptyAgentSystemPrompt = errors.New("agent system prompt cannot be empty")
)

// PersonaConfig describes how content for an agent should be written.
// All fields are free-form instructions authored in the dashboard; Purpose is
// the only one the pipeline requires (content generation refuses to run
// without it).
type PersonaConfig struct {
	Purpose    string `json:"purpose"`
	Metadata   string `json:"metadata"`
	Voice      string `json:"voice"`
	Audience   string `json:"audience"`
	Formatting string `json:"formatting"`
	Language   string `json:"language"`
	Brand      string `json:"brand"`
}

// Agent represents a configured writing persona. It is created and edited in
// the dashboard; the pipeline fetches it once per workflow run and treats it
// as immutable within that run.
type Agent struct {
	ID            uuid.UUID      `json:"id"`
	SystemPrompt  string         `json:"system_prompt"`
	Persona       PersonaConfig  `json:"persona"`
	UploadedFiles []UploadedFile `json:"uploaded_files"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewAgent creates a new Agent with the given system prompt and persona.
// It generates a new UUID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewAgent(systemPrompt string, persona PersonaConfig) (*Agent, error) {
	agent := &Agent{
		ID:           uuid.New(),
		SystemPrompt: systemPrompt,
		Persona:      persona,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := agent.Validate(); err != nil {
		return nil, err
	}

	return agent, nil
}

// Validate checks if the Agent has valid data.
// Returns an error if any field fails validation.
func (a *Agent) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAgentID
	}

	if a.SystemPrompt == "" {
		return ErrEmptyAgentSystemPrompt
	}

	return nil
}

// HasPurpose reports whether the agent's persona has a configured purpose.
// Content generation treats a missing purpose as a caller/config error.
func (a *Agent) HasPurpose() bool {
	return a.Persona.Purpose != ""
}

package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
)

// statusWriteTimeout bounds terminal-status writes made outside the run's
// own context, e.g. after cancellation.
const statusWriteTimeout = 5 * time.Second

// Dependency validation errors
var (
	ErrNilAgentStore   = errors.New("agent store cannot be nil")
	ErrNilContentStore = errors.New("content store cannot be nil")
	ErrNilTextGen      = errors.New("text generator cannot be nil")
	ErrNilObjectGen    = errors.New("object generator cannot be nil")
	ErrNilKnowledge    = errors.New("knowledge store cannot be nil")
	ErrNilStorage      = errors.New("storage uploader cannot be nil")
	ErrNilCrawler      = errors.New("crawler cannot be nil")
	ErrNilSearcher     = errors.New("searcher cannot be nil")
)

// KnowledgeStore is the vector-store surface the workflows consume.
type KnowledgeStore interface {
	// Add embeds and upserts chunks into the knowledge collection.
	Add(ctx context.Context, chunks []domain.KnowledgeChunk) error

	// Query returns up to n stored chunks for the agent, nearest first.
	Query(ctx context.Context, agentID uuid.UUID, queryText string, n int) ([]string, error)
}

// Uploader writes bytes to durable object storage under a key.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Crawler collects raw page text from a website.
type Crawler interface {
	Crawl(ctx context.Context, websiteURL string) (string, error)
}

// Searcher collects raw result text for a web search query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Dispatcher submits tasks for asynchronous execution. Satisfied by
// *task.TaskRunner.
type Dispatcher interface {
	Submit(ctx context.Context, t task.Task) error
}

// Engine holds the collaborators shared by all workflows and builds the
// durable tasks that run them. All clients are injected; the engine holds no
// hidden process-wide state.
type Engine struct {
	agents     store.AgentStore
	contents   store.ContentStore
	textGen    generation.TextGenerator
	objectGen  generation.ObjectGenerator
	knowledge  KnowledgeStore
	storage    Uploader
	crawler    Crawler
	searcher   Searcher
	dispatcher Dispatcher
	retry      task.RetryPolicy
	logger     *slog.Logger
}

// EngineConfig carries the collaborators for NewEngine.
type EngineConfig struct {
	Agents    store.AgentStore
	Contents  store.ContentStore
	TextGen   generation.TextGenerator
	ObjectGen generation.ObjectGenerator
	Knowledge KnowledgeStore
	Storage   Uploader
	Crawler   Crawler
	Searcher  Searcher
	Retry     task.RetryPolicy
	Logger    *slog.Logger
}

// NewEngine validates the collaborators and creates an Engine. The dispatcher
// is attached separately via SetDispatcher because the task runner needs the
// engine's task factory before it can be constructed.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Agents == nil {
		return nil, ErrNilAgentStore
	}
	if cfg.Contents == nil {
		return nil, ErrNilContentStore
	}
	if cfg.TextGen == nil {
		return nil, ErrNilTextGen
	}
	if cfg.ObjectGen == nil {
		return nil, ErrNilObjectGen
	}
	if cfg.Knowledge == nil {
		return nil, ErrNilKnowledge
	}
	if cfg.Storage == nil {
		return nil, ErrNilStorage
	}
	if cfg.Crawler == nil {
		return nil, ErrNilCrawler
	}
	if cfg.Searcher == nil {
		return nil, ErrNilSearcher
	}

	// MaxRetries is taken as given: zero means a single attempt, which an
	// operator may configure deliberately. Only the delay bounds default.
	retryPolicy := cfg.Retry
	defaults := task.DefaultRetryPolicy()
	if retryPolicy.BaseDelay == 0 {
		retryPolicy.BaseDelay = defaults.BaseDelay
	}
	if retryPolicy.MaxDuration == 0 {
		retryPolicy.MaxDuration = defaults.MaxDuration
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		agents:    cfg.Agents,
		contents:  cfg.Contents,
		textGen:   cfg.TextGen,
		objectGen: cfg.ObjectGen,
		knowledge: cfg.Knowledge,
		storage:   cfg.Storage,
		crawler:   cfg.Crawler,
		searcher:  cfg.Searcher,
		retry:     retryPolicy,
		logger:    log.With(slog.String("component", "workflow")),
	}, nil
}

// SetDispatcher attaches the task dispatcher. Must be called before any
// workflow that fans out sub-tasks executes; without it, brand-knowledge runs
// fail at the dispatch stage.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatcher = d
}

package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/google/uuid"
)

// fastRetry keeps test runs quick: one attempt, no backoff to speak of.
var fastRetry = task.RetryPolicy{
	MaxRetries:  0,
	BaseDelay:   time.Millisecond,
	MaxDuration: time.Second,
}

// fakeAgentStore implements store.AgentStore in memory.
type fakeAgentStore struct {
	mu       sync.Mutex
	agents   map[uuid.UUID]*domain.Agent
	appended map[uuid.UUID][]domain.UploadedFile
	getErr   error
}

func newFakeAgentStore(agents ...*domain.Agent) *fakeAgentStore {
	s := &fakeAgentStore{
		agents:   make(map[uuid.UUID]*domain.Agent),
		appended: make(map[uuid.UUID][]domain.UploadedFile),
	}
	for _, a := range agents {
		s.agents[a.ID] = a
	}
	return s
}

func (s *fakeAgentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	agent, ok := s.agents[id]
	if !ok {
		return nil, store.ErrAgentNotFound
	}
	return agent, nil
}

func (s *fakeAgentStore) Update(_ context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
	return nil
}

func (s *fakeAgentStore) AppendUploadedFiles(_ context.Context, agentID uuid.UUID, files []domain.UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		if f.RawContent != "" {
			return fmt.Errorf("uploaded file %q still carries raw content", f.FileName)
		}
	}
	s.appended[agentID] = append(s.appended[agentID], files...)
	return nil
}

func (s *fakeAgentStore) WithTx(_ *sql.Tx) store.AgentStore { return s }

func (s *fakeAgentStore) appendedFiles(agentID uuid.UUID) []domain.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UploadedFile(nil), s.appended[agentID]...)
}

// fakeContentStore implements store.ContentStore in memory.
type fakeContentStore struct {
	mu       sync.Mutex
	contents map[uuid.UUID]*domain.GeneratedContent
	saveErr  error
}

func newFakeContentStore(contents ...*domain.GeneratedContent) *fakeContentStore {
	s := &fakeContentStore{contents: make(map[uuid.UUID]*domain.GeneratedContent)}
	for _, c := range contents {
		s.contents[c.ID] = c
	}
	return s
}

func (s *fakeContentStore) Create(_ context.Context, content *domain.GeneratedContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[content.ID] = content
	return nil
}

func (s *fakeContentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.GeneratedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.contents[id]
	if !ok {
		return nil, store.ErrContentNotFound
	}
	return content, nil
}

func (s *fakeContentStore) SaveGenerated(_ context.Context, id uuid.UUID, body string, stats domain.ContentStats, meta domain.ContentMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if strings.TrimSpace(body) == "" {
		return domain.ErrEmptyContentBody
	}
	content, ok := s.contents[id]
	if !ok {
		return store.ErrContentNotFound
	}
	return content.MarkDraft(body, stats, meta)
}

func (s *fakeContentStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ContentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.contents[id]
	if !ok {
		return store.ErrContentNotFound
	}
	return content.UpdateStatus(status)
}

func (s *fakeContentStore) ListByAgent(_ context.Context, agentID uuid.UUID, _, _ int) ([]*domain.GeneratedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GeneratedContent
	for _, c := range s.contents {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeContentStore) WithTx(_ *sql.Tx) store.ContentStore { return s }

func (s *fakeContentStore) statusOf(id uuid.UUID) domain.ContentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contents[id]; ok {
		return c.Status
	}
	return ""
}

// fakeTextGen implements generation.TextGenerator via a function field and
// counts calls.
type fakeTextGen struct {
	mu    sync.Mutex
	fn    func(req generation.Request) (string, error)
	calls int
}

func (g *fakeTextGen) GenerateText(_ context.Context, req generation.Request) (string, error) {
	g.mu.Lock()
	g.calls++
	fn := g.fn
	g.mu.Unlock()
	if fn == nil {
		return "generated text", nil
	}
	return fn(req)
}

func (g *fakeTextGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeObjectGen implements generation.ObjectGenerator via a function field
// and counts calls.
type fakeObjectGen struct {
	mu    sync.Mutex
	fn    func(req generation.Request, out any) error
	calls int
}

func (g *fakeObjectGen) GenerateObject(_ context.Context, req generation.Request, out any) error {
	g.mu.Lock()
	g.calls++
	fn := g.fn
	g.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("no object generator behavior configured")
	}
	return fn(req, out)
}

func (g *fakeObjectGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// chunkingObjectGen returns the given chunks for chunking requests and
// reasonable defaults for the analysis requests.
func chunkingObjectGen(chunks []string) *fakeObjectGen {
	return &fakeObjectGen{fn: func(req generation.Request, out any) error {
		switch v := out.(type) {
		case *chunkList:
			v.Chunks = chunks
		case *contentMetaAnalysis:
			v.Title = "Test Title"
			v.Description = "Test description"
			v.Keywords = []string{"test"}
		case *qualityAnalysis:
			v.Score = 7.5
		default:
			return fmt.Errorf("unexpected output type %T", out)
		}
		return nil
	}}
}

// fakeKnowledge implements KnowledgeStore in memory, keyed by source.
type fakeKnowledge struct {
	mu       sync.Mutex
	saved    []domain.KnowledgeChunk
	results  []string
	addErr   func(chunk domain.KnowledgeChunk) error
	queryErr error
}

func (k *fakeKnowledge) Add(_ context.Context, chunks []domain.KnowledgeChunk) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, c := range chunks {
		if k.addErr != nil {
			if err := k.addErr(c); err != nil {
				return err
			}
		}
		k.saved = append(k.saved, c)
	}
	return nil
}

func (k *fakeKnowledge) Query(_ context.Context, _ uuid.UUID, _ string, _ int) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.queryErr != nil {
		return nil, k.queryErr
	}
	return append([]string(nil), k.results...), nil
}

func (k *fakeKnowledge) savedChunks() []domain.KnowledgeChunk {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]domain.KnowledgeChunk(nil), k.saved...)
}

func (k *fakeKnowledge) savedForSource(sourceID string) []domain.KnowledgeChunk {
	k.mu.Lock()
	defer k.mu.Unlock()
	var out []domain.KnowledgeChunk
	for _, c := range k.saved {
		if c.SourceID == sourceID {
			out = append(out, c)
		}
	}
	return out
}

// fakeUploader implements Uploader, recording uploads by key.
type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key string, data []byte, _ string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.objects[key] = data
	return nil
}

func (u *fakeUploader) keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []string
	for k := range u.objects {
		out = append(out, k)
	}
	return out
}

// fakeCrawler implements Crawler.
type fakeCrawler struct {
	content string
	err     error
}

func (c *fakeCrawler) Crawl(_ context.Context, _ string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.content, nil
}

// fakeSearcher implements Searcher.
type fakeSearcher struct {
	content string
	err     error
}

func (s *fakeSearcher) Search(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

// fakeDispatcher implements Dispatcher, recording submitted tasks.
type fakeDispatcher struct {
	mu        sync.Mutex
	submitted []task.Task
	err       error
}

func (d *fakeDispatcher) Submit(_ context.Context, t task.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.submitted = append(d.submitted, t)
	return nil
}

func (d *fakeDispatcher) submittedTasks() []task.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]task.Task(nil), d.submitted...)
}

// testDeps bundles the fakes behind an engine for assertions.
type testDeps struct {
	agents     *fakeAgentStore
	contents   *fakeContentStore
	textGen    *fakeTextGen
	objectGen  *fakeObjectGen
	knowledge  *fakeKnowledge
	storage    *fakeUploader
	crawler    *fakeCrawler
	searcher   *fakeSearcher
	dispatcher *fakeDispatcher
}

// newTestEngine builds an engine over fresh fakes with fast retries.
func newTestEngine() (*Engine, *testDeps) {
	deps := &testDeps{
		agents:     newFakeAgentStore(),
		contents:   newFakeContentStore(),
		textGen:    &fakeTextGen{},
		objectGen:  chunkingObjectGen([]string{"chunk one", "chunk two"}),
		knowledge:  &fakeKnowledge{},
		storage:    newFakeUploader(),
		crawler:    &fakeCrawler{content: "crawled site text"},
		searcher:   &fakeSearcher{content: "search result text"},
		dispatcher: &fakeDispatcher{},
	}

	engine, err := NewEngine(EngineConfig{
		Agents:    deps.agents,
		Contents:  deps.contents,
		TextGen:   deps.textGen,
		ObjectGen: deps.objectGen,
		Knowledge: deps.knowledge,
		Storage:   deps.storage,
		Crawler:   deps.crawler,
		Searcher:  deps.searcher,
		Retry:     fastRetry,
	})
	if err != nil {
		panic(err)
	}
	engine.SetDispatcher(deps.dispatcher)

	return engine, deps
}

// setChunks swaps in a chunker returning the given chunks.
func setChunks(e *Engine, deps *testDeps, chunks []string) {
	deps.objectGen = chunkingObjectGen(chunks)
	e.objectGen = deps.objectGen
}

// testAgent builds a valid agent with a configured purpose.
func testAgent() *domain.Agent {
	agent, err := domain.NewAgent("You write for the test brand.", domain.PersonaConfig{
		Purpose:  "educate developers",
		Voice:    "direct",
		Audience: "engineers",
	})
	if err != nil {
		panic(err)
	}
	return agent
}

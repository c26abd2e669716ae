// Package vectorstore persists distilled brand knowledge as embedded
// documents in a pgvector-backed table and retrieves the chunks most relevant
// to a query, scoped to one agent. Document ids are deterministic hashes of
// agent, source and text, so retried saves upsert instead of duplicating.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/draftmill/draftmill-api/internal/domain"
	"github.com/draftmill/draftmill-api/internal/generation"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/store"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// DefaultQueryResults is how many chunks a knowledge query returns when the
// caller does not specify a count.
const DefaultQueryResults = 5

// KnowledgeStore writes and queries the shared agent-knowledge collection.
// The collection is shared across all agents; every read and write is scoped
// by agent (and source, for writes) so concurrent workflows for different
// agents never conflict.
type KnowledgeStore struct {
	db       store.DBTX
	embedder generation.Embedder
	logger   *slog.Logger
}

// NewKnowledgeStore creates a new KnowledgeStore.
// If log is nil, a default logger will be used.
func NewKnowledgeStore(db store.DBTX, embedder generation.Embedder, log *slog.Logger) *KnowledgeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if embedder == nil {
		panic("embedder cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &KnowledgeStore{
		db:       db,
		embedder: embedder,
		logger:   log.With(slog.String("component", "knowledge_store")),
	}
}

// DocumentID derives the deterministic id for a knowledge chunk. The same
// chunk saved twice (e.g. by an at-least-once retry) maps to the same row.
func DocumentID(agentID uuid.UUID, sourceID, text string) string {
	h := sha256.New()
	h.Write([]byte(agentID.String()))
	h.Write([]byte{0})
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Add embeds the chunks and upserts them into the knowledge collection.
// Every chunk must validate; the write is all-or-nothing per call.
func (s *KnowledgeStore) Add(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", store.ErrInvalidEntity, i, err)
		}
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed knowledge chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	query := `
		INSERT INTO knowledge_documents (id, agent_id, source_id, document, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document, embedding = EXCLUDED.embedding
	`
	for i, chunk := range chunks {
		id := DocumentID(chunk.AgentID, chunk.SourceID, chunk.Text)
		_, err := s.db.ExecContext(ctx, query,
			id,
			chunk.AgentID,
			chunk.SourceID,
			chunk.Text,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			log.Error("failed to save knowledge document",
				slog.String("agent_id", chunk.AgentID.String()),
				slog.String("source_id", chunk.SourceID),
				slog.Int("text_length", len(chunk.Text)),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to save knowledge document: %w", err)
		}
	}

	log.Info("knowledge documents saved",
		slog.String("agent_id", chunks[0].AgentID.String()),
		slog.String("source_id", chunks[0].SourceID),
		slog.Int("count", len(chunks)))
	return nil
}

// Query embeds the query text and returns up to n stored chunks for the given
// agent, nearest first by cosine distance. Returns an empty slice if the
// agent has no stored knowledge.
func (s *KnowledgeStore) Query(ctx context.Context, agentID uuid.UUID, queryText string, n int) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if n <= 0 {
		n = DefaultQueryResults
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for query", len(vectors))
	}

	query := `
		SELECT document
		FROM knowledge_documents
		WHERE agent_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, agentID, pgvector.NewVector(vectors[0]), n)
	if err != nil {
		log.Error("failed to query knowledge documents",
			slog.String("agent_id", agentID.String()),
			slog.Int("query_length", len(queryText)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query knowledge documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var documents []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge document: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read knowledge documents: %w", err)
	}

	log.Debug("knowledge query completed",
		slog.String("agent_id", agentID.String()),
		slog.Int("result_count", len(documents)))
	return documents, nil
}

// Package retrieval turns raw text into retrievable knowledge and turns a
// query embedding into ranked, human-presentable context snippets.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewbuddy/brewbuddy/internal/embeddings"
)

const (
	// DefaultCategory tags documents ingested without an explicit category.
	DefaultCategory = "knowledge_base"

	// DefaultLimit is the number of snippets returned when the caller does
	// not ask for a specific count.
	DefaultLimit = 3

	// RelevanceThreshold is the minimum similarity a match must reach to
	// be considered useful context.
	RelevanceThreshold = 0.6

	// NoRelevantData is returned instead of an empty result so downstream
	// prompt assembly always has content to insert.
	NoRelevantData = "no relevant data found in the knowledge base"

	// bootstrapBatchSize is how many corpus passages are embedded per call
	// to the embedding service during Initialize.
	bootstrapBatchSize = 10
)

// Embedder generates embeddings for batches of texts. Implementations may
// fail per call; the orchestrator isolates those failures.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the slice of the embedding store the orchestrator depends on.
type Store interface {
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, content, category string, embedding []float32) (string, error)
	InsertBatch(ctx context.Context, docs []embeddings.Document) (int, error)
	FindSimilarDocuments(ctx context.Context, query []float32, limit int) []embeddings.SimilarityResult
}

// Orchestrator bootstraps a knowledge corpus into the embedding store and
// serves threshold-filtered top-k retrieval over it.
type Orchestrator struct {
	store    Store
	embedder Embedder
	logger   *slog.Logger
}

// New creates an Orchestrator. A nil logger falls back to slog.Default().
func New(store Store, embedder Embedder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{store: store, embedder: embedder, logger: logger}
}

// Initialize loads the corpus into the store if, and only if, the store is
// empty. It is a one-time load, not a sync: re-running with a changed
// corpus does not update existing rows.
//
// Corpus passages are embedded in batches; a batch whose embedding call
// fails is logged and skipped without aborting the rest. Everything staged
// is inserted in one bulk call at the end.
func (o *Orchestrator) Initialize(ctx context.Context, corpus []string) error {
	count, err := o.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}
	if count > 0 {
		o.logger.Debug("knowledge base already bootstrapped", "rows", count)
		return nil
	}
	if len(corpus) == 0 {
		o.logger.Warn("bootstrap requested with empty corpus")
		return nil
	}

	staged := make([]embeddings.Document, 0, len(corpus))
	for start := 0; start < len(corpus); start += bootstrapBatchSize {
		end := min(start+bootstrapBatchSize, len(corpus))
		batch := corpus[start:end]

		vectors, err := o.embedder.Embed(ctx, batch)
		if err != nil {
			o.logger.Warn("skipping corpus batch, embedding failed",
				"batch_start", start, "batch_size", len(batch), "error", err)
			continue
		}
		if len(vectors) != len(batch) {
			o.logger.Warn("skipping corpus batch, embedding count mismatch",
				"batch_start", start, "expected", len(batch), "got", len(vectors))
			continue
		}

		for i, text := range batch {
			staged = append(staged, embeddings.Document{
				Content:   text,
				Category:  DefaultCategory,
				Embedding: vectors[i],
			})
		}
	}

	if len(staged) == 0 {
		o.logger.Warn("bootstrap staged no documents, all batches failed")
		return nil
	}

	inserted, err := o.store.InsertBatch(ctx, staged)
	if err != nil {
		return fmt.Errorf("bulk inserting corpus: %w", err)
	}
	o.logger.Info("knowledge base bootstrapped",
		"corpus_size", len(corpus), "staged", len(staged), "inserted", inserted)
	return nil
}

// QuerySimilar returns up to limit formatted snippets relevant to the query
// embedding. The result is never empty: when no match clears the relevance
// threshold, a single sentinel message is returned instead.
func (o *Orchestrator) QuerySimilar(ctx context.Context, queryEmbedding []float32, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := o.store.FindSimilarDocuments(ctx, queryEmbedding, limit)

	snippets := make([]string, 0, limit)
	for _, r := range results {
		if r.Similarity < RelevanceThreshold {
			continue
		}
		snippets = append(snippets, fmt.Sprintf("%s (%.1f%% relevance)", r.Content, r.Similarity*100))
		if len(snippets) == limit {
			break
		}
	}

	if len(snippets) == 0 {
		o.logger.Debug("no matches above relevance threshold", "candidates", len(results))
		return []string{NoRelevantData}
	}
	return snippets
}

// AddDocument embeds one text and stores it under the given category
// (DefaultCategory when empty). Failures are logged and swallowed so a
// background ingestion never blocks the caller.
func (o *Orchestrator) AddDocument(ctx context.Context, text, category string) {
	if text == "" {
		o.logger.Warn("ignoring empty document")
		return
	}
	if category == "" {
		category = DefaultCategory
	}

	vectors, err := o.embedder.Embed(ctx, []string{text})
	if err != nil {
		o.logger.Warn("document ingestion failed, embedding error", "category", category, "error", err)
		return
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		o.logger.Warn("document ingestion failed, empty embedding", "category", category)
		return
	}

	id, err := o.store.Insert(ctx, text, category, vectors[0])
	if err != nil {
		o.logger.Warn("document ingestion failed, insert error", "category", category, "error", err)
		return
	}
	o.logger.Debug("document ingested", "id", id, "category", category)
}

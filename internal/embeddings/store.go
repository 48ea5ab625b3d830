package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pgvector/pgvector-go"
)

// maxScanRows bounds the in-process fallback scan. The text tier has no
// usable index, so reads are capped instead of scanning the whole table.
const maxScanRows = 100

// Document is the input shape for insertion.
type Document struct {
	Content   string
	Category  string
	Embedding []float32
}

// Record is a stored embedding row. The Embedding field is populated only
// by operations that read it back; listing operations leave it nil.
type Record struct {
	ID        string
	Content   string
	Category  string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimilarityResult is one ranked match from a similarity search.
// Similarity approximates cosine similarity in [-1, 1] regardless of the
// tier that produced it.
type SimilarityResult struct {
	ID         string
	Content    string
	Similarity float64
}

// Store provides CRUD and similarity search over embedding rows, using the
// SQL dialect of the capability tier SchemaManager established.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	tier   Tier
	logger *slog.Logger
}

// NewStore creates a Store bound to the given capability tier. The tier is
// cached for the process lifetime; re-run SchemaManager and build a new
// Store to pick up a schema change.
func NewStore(db DB, tier Tier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, tier: tier, logger: logger}
}

// Tier reports the capability tier this store was built against.
func (s *Store) Tier() Tier {
	return s.tier
}

// Insert stores one embedding row and returns its generated id.
//
// Content and category must be non-empty. The embedding length is the
// caller's contract; the store serializes whatever it is given.
func (s *Store) Insert(ctx context.Context, content, category string, embedding []float32) (string, error) {
	if content == "" {
		return "", fmt.Errorf("content must not be empty")
	}
	if category == "" {
		return "", fmt.Errorf("category must not be empty")
	}

	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO `+TableName+` (content, category, embedding)
		 VALUES ($1, $2, $3) RETURNING id::text`,
		content, category, s.embeddingParam(embedding)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting embedding: %w", err)
	}

	s.logger.Debug("inserted embedding", "id", id, "category", category, "content_length", len(content))
	return id, nil
}

// InsertBatch stores all documents of one call inside a single transaction,
// isolating per-row failures with savepoints: a failing row is logged and
// skipped, and the transaction still commits the rows that succeeded.
// It returns the number of rows actually persisted.
func (s *Store) InsertBatch(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning bulk insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for i, doc := range docs {
		// Nested Begin on a pgx transaction opens a savepoint, so one
		// bad row cannot poison the outer transaction.
		sp, err := tx.Begin(ctx)
		if err != nil {
			return inserted, fmt.Errorf("opening savepoint for row %d: %w", i, err)
		}

		_, err = sp.Exec(ctx,
			`INSERT INTO `+TableName+` (content, category, embedding) VALUES ($1, $2, $3)`,
			doc.Content, doc.Category, s.embeddingParam(doc.Embedding))
		if err != nil {
			_ = sp.Rollback(ctx)
			s.logger.Warn("skipping embedding row in bulk insert",
				"row", i, "category", doc.Category, "error", err)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return inserted, fmt.Errorf("releasing savepoint for row %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing bulk insert: %w", err)
	}

	s.logger.Info("bulk insert complete", "inserted", inserted, "skipped", len(docs)-inserted)
	return inserted, nil
}

// embeddingParam serializes a vector for the active tier's column type.
func (s *Store) embeddingParam(embedding []float32) any {
	switch s.tier {
	case TierNativeVector:
		return pgvector.NewVector(embedding)
	case TierFixedArray:
		return float64Slice(embedding)
	default:
		return encodeVector(embedding)
	}
}

// FindSimilarDocuments returns up to limit rows ranked by similarity to the
// query vector, most similar first.
//
// Similarity search is a best-effort retrieval aid: every failure degrades
// to the next strategy and ultimately to an empty result, never an error.
// Callers must tolerate an empty slice.
func (s *Store) FindSimilarDocuments(ctx context.Context, query []float32, limit int) []SimilarityResult {
	if limit <= 0 || len(query) == 0 {
		return nil
	}

	switch s.tier {
	case TierNativeVector:
		results, err := s.searchNative(ctx, query, limit, "<=>")
		if err == nil {
			return results
		}
		s.logger.Warn("cosine distance operator failed, retrying with L2", "error", err)

		results, err = s.searchNative(ctx, query, limit, "<->")
		if err == nil {
			return results
		}
		s.logger.Warn("L2 distance operator failed, falling back to in-process scan", "error", err)

	case TierFixedArray:
		results, err := s.searchArray(ctx, query, limit)
		if err == nil {
			return results
		}
		s.logger.Warn("array similarity query failed, falling back to in-process scan", "error", err)
	}

	results, err := s.searchScan(ctx, query, limit)
	if err != nil {
		s.logger.Error("similarity search failed on all strategies", "error", err)
		return nil
	}
	return results
}

// searchNative runs a pgvector nearest-neighbor query with the given
// distance operator and converts distance to similarity as 1 - distance.
func (s *Store) searchNative(ctx context.Context, query []float32, limit int, op string) ([]SimilarityResult, error) {
	sql := fmt.Sprintf(
		`SELECT id::text, content, 1 - (embedding %s $1) AS similarity
		 FROM %s
		 ORDER BY embedding %s $1
		 LIMIT $2`, op, TableName, op)

	rows, err := s.db.Query(ctx, sql, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, fmt.Errorf("native vector search (%s): %w", op, err)
	}
	defer rows.Close()

	var results []SimilarityResult
	for rows.Next() {
		var r SimilarityResult
		if err := rows.Scan(&r.ID, &r.Content, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning vector search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading vector search rows: %w", err)
	}
	return results, nil
}

// searchArray computes cosine similarity inside the database over the
// double precision[] column: dot product over the product of norms, with a
// zero denominator coalesced to similarity 0.
func (s *Store) searchArray(ctx context.Context, query []float32, limit int) ([]SimilarityResult, error) {
	sql := `SELECT id::text, content,
		COALESCE(
			(SELECT sum(d.v * q.v)
			   FROM unnest(embedding) WITH ORDINALITY AS d(v, i)
			   JOIN unnest($1::float8[]) WITH ORDINALITY AS q(v, i) USING (i))
			/ NULLIF(
				sqrt((SELECT sum(v * v) FROM unnest(embedding) AS v)) *
				sqrt((SELECT sum(v * v) FROM unnest($1::float8[]) AS v)),
			0),
		0) AS similarity
		FROM ` + TableName + `
		ORDER BY similarity DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, sql, float64Slice(query), limit)
	if err != nil {
		return nil, fmt.Errorf("array similarity search: %w", err)
	}
	defer rows.Close()

	var results []SimilarityResult
	for rows.Next() {
		var r SimilarityResult
		if err := rows.Scan(&r.ID, &r.Content, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning array search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading array search rows: %w", err)
	}
	return results, nil
}

// searchScan is the final fallback: read a bounded sample of rows, parse
// each stored vector, and score cosine similarity in process. Rows whose
// vector fails to parse are kept with similarity 0 so their existence stays
// visible to callers.
func (s *Store) searchScan(ctx context.Context, query []float32, limit int) ([]SimilarityResult, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id::text, content, embedding::text FROM `+TableName+` LIMIT $1`,
		maxScanRows)
	if err != nil {
		return nil, fmt.Errorf("fallback scan: %w", err)
	}
	defer rows.Close()

	var results []SimilarityResult
	for rows.Next() {
		var r SimilarityResult
		var encoded string
		if err := rows.Scan(&r.ID, &r.Content, &encoded); err != nil {
			return nil, fmt.Errorf("scanning fallback row: %w", err)
		}

		stored, err := parseVector(encoded)
		if err != nil {
			s.logger.Warn("malformed stored vector, scoring 0", "id", r.ID, "error", err)
		} else {
			r.Similarity = cosineSimilarity(query, stored)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading fallback rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of stored embedding rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+TableName).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return count, nil
}

// DeleteAll removes every stored embedding row. This is the administrative
// reset used before re-bootstrapping a refreshed corpus.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM `+TableName); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	s.logger.Info("deleted all embeddings")
	return nil
}

// ListByCategory returns rows in a category, newest first, without their
// embedding payloads.
func (s *Store) ListByCategory(ctx context.Context, category string, limit int32) ([]Record, error) {
	if category == "" {
		return nil, fmt.Errorf("category must not be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id::text, content, category, created_at, updated_at
		 FROM `+TableName+`
		 WHERE category = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("listing embeddings by category: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Category, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading embedding records: %w", err)
	}
	return records, nil
}

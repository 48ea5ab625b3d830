package embeddings

import (
	"context"
	"fmt"
	"log/slog"
)

// SchemaManager establishes the embeddings table at startup and repairs it
// when a previous deployment left it in an unsupported state.
//
// Ensure is idempotent but not safe to run concurrently with itself; the
// host is expected to serialize startup.
type SchemaManager struct {
	db     DB
	logger *slog.Logger
}

// NewSchemaManager creates a SchemaManager. A nil logger falls back to
// slog.Default().
func NewSchemaManager(db DB, logger *slog.Logger) *SchemaManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaManager{db: db, logger: logger}
}

// Ensure probes the live schema, repairs it if needed, and provisions the
// embeddings table at the highest capability tier the database supports.
// It returns the tier that is now active.
//
// Every provisioning failure inside the ladder is non-fatal and falls
// through to the next tier; an error is returned only when the database
// itself cannot be reached or even the text tier cannot be created.
func (m *SchemaManager) Ensure(ctx context.Context) (Tier, error) {
	col, err := probeCapability(ctx, m.db)
	if err != nil {
		return "", fmt.Errorf("probing embeddings schema: %w", err)
	}

	plan := planMigration(col)
	if plan.Keep {
		m.logger.Info("embeddings schema unchanged", "tier", plan.KeepTier, "column_type", col.RawType)
		return plan.KeepTier, nil
	}
	if plan.Drop {
		m.logger.Warn("dropping incompatible embeddings table",
			"column_type", col.RawType, "reason", plan.Reason)
		if _, err := m.db.Exec(ctx, `DROP TABLE IF EXISTS `+TableName); err != nil {
			return "", fmt.Errorf("dropping stale embeddings table: %w", err)
		}
	}

	if err := m.provisionNative(ctx); err == nil {
		m.logger.Info("embeddings schema ready", "tier", TierNativeVector)
		return TierNativeVector, nil
	} else {
		m.logger.Warn("pgvector unavailable, falling back to array column", "error", err)
	}

	if err := m.provisionArray(ctx); err == nil {
		m.logger.Info("embeddings schema ready", "tier", TierFixedArray)
		return TierFixedArray, nil
	} else {
		m.logger.Warn("array column unavailable, falling back to text column", "error", err)
	}

	if err := m.provisionText(ctx); err != nil {
		return "", fmt.Errorf("creating text-encoded embeddings table: %w", err)
	}
	m.logger.Info("embeddings schema ready", "tier", TierTextEncoded)
	return TierTextEncoded, nil
}

// provisionNative enables pgvector and creates the table with a native
// fixed-dimension vector column, then degrades through the index ladder:
// ivfflat cosine index, plain category index, no index.
func (m *SchemaManager) provisionNative(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("enabling vector extension: %w", err)
	}

	if err := m.createTable(ctx, fmt.Sprintf("vector(%d)", Dimension)); err != nil {
		return err
	}

	_, err := m.db.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
		 USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		TableName, TableName))
	if err == nil {
		return nil
	}
	m.logger.Warn("ivfflat index creation failed, trying plain index", "error", err)

	_, err = m.db.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_category_idx ON %s (category)`,
		TableName, TableName))
	if err != nil {
		// Queries stay correct without any index, only slower.
		m.logger.Warn("index creation failed, continuing without index", "error", err)
	}
	return nil
}

// provisionArray creates the table with a double precision[] column.
func (m *SchemaManager) provisionArray(ctx context.Context) error {
	return m.createTable(ctx, "double precision[]")
}

// provisionText creates the table with a plain text column. Vectors are
// serialized as bracketed comma-separated strings on write.
func (m *SchemaManager) provisionText(ctx context.Context) error {
	return m.createTable(ctx, "text")
}

// createTable creates the embeddings table with the given embedding column
// type. All other columns are identical across tiers.
func (m *SchemaManager) createTable(ctx context.Context, embeddingType string) error {
	_, err := m.db.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			content text NOT NULL,
			category text NOT NULL,
			embedding %s,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`, TableName, embeddingType))
	if err != nil {
		return fmt.Errorf("creating embeddings table (%s): %w", embeddingType, err)
	}

	// set_updated_at comes from the base migrations; trigger creation is
	// best-effort so a missing function never blocks provisioning.
	_, err = m.db.Exec(ctx, fmt.Sprintf(
		`CREATE OR REPLACE TRIGGER %s_updated_at
		 BEFORE UPDATE ON %s
		 FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,
		TableName, TableName))
	if err != nil {
		m.logger.Debug("updated_at trigger not installed", "error", err)
	}
	return nil
}

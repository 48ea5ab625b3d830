package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Dimension is the width of every stored embedding vector, matching the
// output of the configured embedding model (text-embedding-ada-002).
const Dimension = 1536

// TableName is the single table this package manages.
const TableName = "embeddings"

// Tier identifies how the database physically holds an embedding.
type Tier string

const (
	// TierNativeVector uses the pgvector extension's vector type.
	TierNativeVector Tier = "native_vector"

	// TierFixedArray uses a plain double precision[] column.
	TierFixedArray Tier = "fixed_array"

	// TierTextEncoded serializes the vector as a bracketed
	// comma-separated string in a text column.
	TierTextEncoded Tier = "text_encoded"
)

// DB is the subset of pgxpool.Pool this package depends on.
// Defined on the consumer side so tests can substitute a fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ColumnCapability describes what the live schema can currently hold.
// It is derived on each SchemaManager run, never persisted.
type ColumnCapability struct {
	// Exists reports whether the embeddings table exists at all.
	Exists bool

	// Tier is the capability tier implied by the embedding column type,
	// or empty when the column type matches no supported tier.
	Tier Tier

	// RawType is the store-reported column type (udt_name), kept for
	// diagnostics.
	RawType string
}

// probeCapability inspects information_schema for the embeddings table and
// the declared type of its embedding column.
func probeCapability(ctx context.Context, db DB) (ColumnCapability, error) {
	var col ColumnCapability

	err := db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, TableName).Scan(&col.Exists)
	if err != nil {
		return col, fmt.Errorf("probing table existence: %w", err)
	}
	if !col.Exists {
		return col, nil
	}

	err = db.QueryRow(ctx,
		`SELECT udt_name FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1 AND column_name = 'embedding'`,
		TableName).Scan(&col.RawType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Table exists but has no embedding column at all.
			return col, nil
		}
		return col, fmt.Errorf("probing embedding column type: %w", err)
	}

	col.Tier = tierForColumnType(col.RawType)
	return col, nil
}

// tierForColumnType maps a udt_name to the tier it can serve, or "" when
// the type matches no supported tier.
func tierForColumnType(udtName string) Tier {
	switch udtName {
	case "vector":
		return TierNativeVector
	case "_float8":
		return TierFixedArray
	case "text", "varchar":
		return TierTextEncoded
	default:
		return ""
	}
}

// migrationPlan is the explicit state transition SchemaManager will apply.
// Making the drop decision a value keeps it auditable and testable without
// a live database.
type migrationPlan struct {
	// Keep means the schema already serves a vector-capable tier and is
	// left untouched.
	Keep bool

	// KeepTier is the tier kept when Keep is true.
	KeepTier Tier

	// Drop means an existing table is destroyed before provisioning.
	Drop bool

	// Reason explains the decision for the startup log.
	Reason string
}

// planMigration decides what to do with the observed schema.
//
// A text-encoded column is not kept: it is only ever created when the
// extension and array tiers both failed, so each startup retries the
// ladder from the top.
func planMigration(col ColumnCapability) migrationPlan {
	switch {
	case !col.Exists:
		return migrationPlan{Reason: "table does not exist"}
	case col.Tier == TierNativeVector, col.Tier == TierFixedArray:
		return migrationPlan{Keep: true, KeepTier: col.Tier, Reason: "column type already vector-capable"}
	default:
		return migrationPlan{Drop: true, Reason: fmt.Sprintf("incompatible embedding column type %q", col.RawType)}
	}
}

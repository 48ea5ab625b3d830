// Package embeddings persists text embeddings in PostgreSQL and answers
// nearest-neighbor similarity queries.
//
// The pgvector extension is not guaranteed to be installed on every
// deployment, so the package degrades through three capability tiers:
//
//	native_vector  pgvector column, ANN index when possible
//	fixed_array    double precision[] column, similarity computed in SQL
//	text_encoded   text column, bounded scan scored in process
//
// SchemaManager probes the live schema at startup, repairs it when it does
// not match any supported tier, and reports the tier it achieved. Store
// adapts its SQL to that tier; callers never see which tier is active.
package embeddings

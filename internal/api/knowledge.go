package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brewbuddy/brewbuddy/internal/embeddings"
)

// Retriever is the retrieval surface the knowledge endpoints use.
type Retriever interface {
	QuerySimilar(ctx context.Context, queryEmbedding []float32, limit int) []string
	AddDocument(ctx context.Context, text, category string)
}

// Embedder turns the search query text into its embedding.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// StatsProvider reports the state of the underlying embedding store.
type StatsProvider interface {
	Count(ctx context.Context) (int64, error)
	Tier() embeddings.Tier
}

// KnowledgeHandler handles knowledge base endpoints.
type KnowledgeHandler struct {
	retriever Retriever
	embedder  Embedder
	stats     StatsProvider
	logger    *slog.Logger
}

// NewKnowledgeHandler creates a new knowledge handler.
func NewKnowledgeHandler(retriever Retriever, embedder Embedder, stats StatsProvider, logger *slog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{retriever: retriever, embedder: embedder, stats: stats, logger: logger}
}

// RegisterRoutes registers knowledge routes on the given mux.
func (h *KnowledgeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/knowledge", h.add)
	mux.HandleFunc("POST /api/knowledge/search", h.search)
	mux.HandleFunc("GET /api/knowledge/stats", h.getStats)
}

// AddRequest is the body of POST /api/knowledge.
type AddRequest struct {
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// add ingests a single document. Ingestion is best-effort: the handler
// returns 202 once the document is handed to the retriever, which logs and
// swallows downstream failures.
func (h *KnowledgeHandler) add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}

	h.retriever.AddDocument(r.Context(), req.Content, req.Category)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// SearchRequest is the body of POST /api/knowledge/search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse is the body returned by POST /api/knowledge/search.
type SearchResponse struct {
	Results []string `json:"results"`
}

// search embeds the query text and returns threshold-filtered snippets.
func (h *KnowledgeHandler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	vectors, err := h.embedder.Embed(r.Context(), []string{req.Query})
	if err != nil {
		h.logger.Error("query embedding failed", "error", err)
		writeError(w, http.StatusBadGateway, "embedding_failed", "could not embed query")
		return
	}
	if len(vectors) == 0 {
		h.logger.Error("embedding service returned no vectors for query")
		writeError(w, http.StatusBadGateway, "embedding_failed", "could not embed query")
		return
	}

	results := h.retriever.QuerySimilar(r.Context(), vectors[0], req.Limit)
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// StatsResponse is the body returned by GET /api/knowledge/stats.
type StatsResponse struct {
	Documents int64  `json:"documents"`
	Tier      string `json:"tier"`
}

// getStats reports the row count and the active storage tier.
func (h *KnowledgeHandler) getStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.stats.Count(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats_failed", "could not read store state")
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Documents: count,
		Tier:      string(h.stats.Tier()),
	})
}

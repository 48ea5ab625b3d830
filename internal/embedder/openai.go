// Package embedder converts text into embedding vectors using the OpenAI
// embeddings API.
package embedder

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Dimension is the output dimensionality of text-embedding-ada-002.
const Dimension = 1536

// requestsPerSecond bounds calls to the embeddings endpoint. The OpenAI
// free tier allows 3 RPM; paid tiers far more. 2 rps with a small burst
// keeps bootstrap fast without tripping 429s on typical accounts.
const (
	requestsPerSecond = 2
	requestBurst      = 4
)

// Client produces embeddings via the OpenAI API with client-side rate
// limiting. It implements retrieval.Embedder.
type Client struct {
	api     *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates an embedding client. model may be empty, in which case
// text-embedding-ada-002 is used.
func New(apiKey, model string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	m := openai.AdaEmbeddingV2
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &Client{
		api:     openai.NewClient(apiKey),
		model:   m,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:  logger,
	}
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}

	c.logger.Debug("embedded texts", "count", len(texts), "model", string(c.model))
	return vectors, nil
}

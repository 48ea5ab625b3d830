package embedder

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/brewbuddy/brewbuddy/internal/log"
)

func TestNew_DefaultModel(t *testing.T) {
	c := New("test-key", "", log.NewNop())
	if c.model != openai.AdaEmbeddingV2 {
		t.Errorf("model = %q, want %q", c.model, openai.AdaEmbeddingV2)
	}

	c = New("test-key", "text-embedding-3-small", log.NewNop())
	if c.model != openai.EmbeddingModel("text-embedding-3-small") {
		t.Errorf("model = %q, want text-embedding-3-small", c.model)
	}
}

func TestEmbed_EmptyInput(t *testing.T) {
	c := New("test-key", "", log.NewNop())

	// No texts means no API call and no rate limiter wait.
	vectors, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) returned error: %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil", vectors)
	}
}

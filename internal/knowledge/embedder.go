// Package knowledge is the similarity-search backend: it embeds course material,
// stores the vectors and answers top-k queries by cosine similarity.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed embeds a search query
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds documents for storage, one vector per input in order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the engine name
	Name() string
}

// EmbedderConfig selects and configures an embedding engine
type EmbedderConfig struct {
	Provider      string // "openai" (OpenAI-compatible endpoint) or "gemini"
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
}

// NewEmbedder creates an embedding engine based on configuration.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
	case "gemini":
		return NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'openai' or 'gemini')", cfg.Provider)
	}
}

// CosineSimilarity returns a value between -1 and 1. Vectors of different length
// or with zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag))
}

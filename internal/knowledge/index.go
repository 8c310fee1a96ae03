package knowledge

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
	"github.com/Conceptual-Machines/tutor-api/internal/retrieval"
)

// Index answers similarity queries over one knowledge source
type Index struct {
	embedder Embedder
	store    Store
	source   string
}

var _ retrieval.Searcher = (*Index)(nil)

// NewIndex creates an index over the chunks stored under source
func NewIndex(embedder Embedder, store Store, source string) *Index {
	return &Index{embedder: embedder, store: store, source: source}
}

type scoredChunk struct {
	chunk Chunk
	score float64
	order int
}

// Search returns up to k snippets by descending cosine similarity; equal scores keep
// insertion order. A source without chunks reports retrieval.ErrUnavailable.
func (i *Index) Search(ctx context.Context, query string, k int) ([]models.Snippet, error) {
	chunks, err := i.store.All(ctx, i.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", retrieval.ErrUnavailable, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: knowledge source %q is empty", retrieval.ErrUnavailable, i.source)
	}

	vector, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]scoredChunk, len(chunks))
	for n, c := range chunks {
		scored[n] = scoredChunk{chunk: c, score: CosineSimilarity(vector, c.Vector), order: n}
	}
	slices.SortFunc(scored, func(a, b scoredChunk) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}

	snippets := make([]models.Snippet, len(scored))
	for n, s := range scored {
		snippets[n] = models.Snippet{
			Text:   s.chunk.Content,
			Source: s.chunk.Document,
			Score:  s.score,
		}
	}
	return snippets, nil
}

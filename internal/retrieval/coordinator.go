// Package retrieval gathers reference snippets for a set of topics from a
// similarity-search backend.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

const (
	// QuestionTopK is the per-topic result count for question generation.
	QuestionTopK = 3
	// DialogueTopK is the per-topic result count for dialogue turns.
	DialogueTopK = 5
)

// ErrUnavailable reports that the knowledge index is missing or unreachable.
var ErrUnavailable = errors.New("knowledge index unavailable")

// Searcher is a similarity-search backend.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.Snippet, error)
}

// Coordinator issues one query per topic and merges the results.
type Coordinator struct {
	searcher     Searcher
	subjectLabel string
	topK         int
}

// NewCoordinator returns a Coordinator. A nil searcher makes every Retrieve call
// report ErrUnavailable.
func NewCoordinator(searcher Searcher, subjectLabel string, topK int) *Coordinator {
	return &Coordinator{searcher: searcher, subjectLabel: subjectLabel, topK: topK}
}

// Retrieve queries "<topic> <subject> [<persona>]" for every topic in order, then
// deduplicates by exact text and truncates to models.MaxSnippets. On any search
// failure it returns an empty context and an error wrapping ErrUnavailable.
func (c *Coordinator) Retrieve(ctx context.Context, topics []string, persona string) (models.RetrievedContext, error) {
	if c == nil || c.searcher == nil {
		return models.RetrievedContext{}, ErrUnavailable
	}

	var buffer []models.Snippet
	for _, topic := range topics {
		query := BuildQuery(topic, c.subjectLabel, persona)
		results, err := c.searcher.Search(ctx, query, c.topK)
		if err != nil {
			logger.Warn("Similarity search failed", logger.Fields{
				"component": "retrieval",
				"query":     query,
				"error":     err.Error(),
			})
			if errors.Is(err, ErrUnavailable) {
				return models.RetrievedContext{}, err
			}
			return models.RetrievedContext{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		buffer = append(buffer, results...)
	}

	return Dedupe(buffer, models.MaxSnippets), nil
}

// BuildQuery joins the non-empty query parts with single spaces.
func BuildQuery(topic, subjectLabel, persona string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{topic, subjectLabel, persona} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Dedupe keeps the first snippet for each distinct text and caps the result.
func Dedupe(snippets []models.Snippet, limit int) models.RetrievedContext {
	out := make(models.RetrievedContext, 0, min(len(snippets), limit))
	seen := make(map[string]bool, len(snippets))
	for _, s := range snippets {
		if len(out) >= limit {
			break
		}
		if seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		out = append(out, s)
	}
	return out
}

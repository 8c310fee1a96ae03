package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

// MockSearcher records queries and answers from a func field.
type MockSearcher struct {
	searchFunc func(ctx context.Context, query string, k int) ([]models.Snippet, error)
	queries    []string
	ks         []int
}

func (m *MockSearcher) Search(ctx context.Context, query string, k int) ([]models.Snippet, error) {
	m.queries = append(m.queries, query)
	m.ks = append(m.ks, k)
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query, k)
	}
	return nil, nil
}

func snippets(texts ...string) []models.Snippet {
	out := make([]models.Snippet, len(texts))
	for i, t := range texts {
		out[i] = models.Snippet{Text: t}
	}
	return out
}

func TestRetrieve_QueriesEachTopicInOrder(t *testing.T) {
	searcher := &MockSearcher{
		searchFunc: func(_ context.Context, query string, _ int) ([]models.Snippet, error) {
			return snippets(query + "-a"), nil
		},
	}
	c := NewCoordinator(searcher, "马克思主义基本原理", QuestionTopK)

	got, err := c.Retrieve(context.Background(), []string{"矛盾论", "认识论"}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"矛盾论 马克思主义基本原理", "认识论 马克思主义基本原理"}, searcher.queries)
	assert.Equal(t, []int{3, 3}, searcher.ks)
	assert.Equal(t, []string{"矛盾论 马克思主义基本原理-a", "认识论 马克思主义基本原理-a"}, got.Texts())
}

func TestRetrieve_PersonaAppendedToQuery(t *testing.T) {
	searcher := &MockSearcher{}
	c := NewCoordinator(searcher, "马克思主义基本原理", DialogueTopK)

	_, err := c.Retrieve(context.Background(), []string{"实践观"}, "马克思")
	require.NoError(t, err)
	assert.Equal(t, []string{"实践观 马克思主义基本原理 马克思"}, searcher.queries)
	assert.Equal(t, []int{5}, searcher.ks)
}

func TestRetrieve_DedupesAndCaps(t *testing.T) {
	tests := []struct {
		name   string
		topics int
	}{
		{"one topic", 1},
		{"three topics", 3},
		{"ten topics", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &MockSearcher{
				searchFunc: func(_ context.Context, query string, k int) ([]models.Snippet, error) {
					return snippets("shared", query, "shared", fmt.Sprintf("%s-%d", query, k)), nil
				},
			}
			topics := make([]string, tt.topics)
			for i := range topics {
				topics[i] = fmt.Sprintf("t%d", i)
			}

			got, err := NewCoordinator(searcher, "s", QuestionTopK).Retrieve(context.Background(), topics, "")
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), models.MaxSnippets)

			seen := map[string]bool{}
			for _, s := range got {
				assert.False(t, seen[s.Text], "duplicate %q", s.Text)
				seen[s.Text] = true
			}
			assert.Equal(t, "shared", got[0].Text)
		})
	}
}

func TestRetrieve_FailsClosed(t *testing.T) {
	searcher := &MockSearcher{
		searchFunc: func(context.Context, string, int) ([]models.Snippet, error) {
			return nil, errors.New("connection refused")
		},
	}
	got, err := NewCoordinator(searcher, "s", QuestionTopK).Retrieve(context.Background(), []string{"a"}, "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, got)
}

func TestRetrieve_NilSearcher(t *testing.T) {
	got, err := NewCoordinator(nil, "s", QuestionTopK).Retrieve(context.Background(), []string{"a"}, "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, got)
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "a b c", BuildQuery(" a ", "b", "c"))
	assert.Equal(t, "a b", BuildQuery("a", "b", ""))
	assert.Equal(t, "b", BuildQuery("", "b", "  "))
}

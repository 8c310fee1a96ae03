package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline("tutor_test", prometheus.NewRegistry(), nil, NewSentrySpans(false))
}

func TestPipeline_Counters(t *testing.T) {
	p := newTestPipeline(t)

	p.QuestionsGenerated(OutcomeSuccess)
	p.QuestionsGenerated(OutcomeSuccess)
	p.QuestionsGenerated(OutcomeError)
	p.AnswerCacheLookup(true)
	p.AnswerCacheLookup(false)
	p.DialogueTurn("continue")
	p.VisionFallback()
	p.RetrievalFailure("questions")

	assert.InDelta(t, 2, testutil.ToFloat64(p.QuestionsGeneratedTotal.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.QuestionsGeneratedTotal.WithLabelValues(OutcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.AnswerCacheHits.WithLabelValues("true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.AnswerCacheHits.WithLabelValues("false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.DialogueTurns.WithLabelValues("continue")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.VisionFallbacks), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.RetrievalFailures.WithLabelValues("questions")), 0)
}

func TestPipeline_TokensAndLatency(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	p.RecordTokens(ctx, "qwen-max", 100, 40, 140)
	p.ObserveGeneration(ctx, "questions", 1200*time.Millisecond, true)

	assert.InDelta(t, 100, testutil.ToFloat64(p.Tokens.WithLabelValues("qwen-max", "input")), 0)
	assert.InDelta(t, 40, testutil.ToFloat64(p.Tokens.WithLabelValues("qwen-max", "output")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(p.GenerationLatency))
}

func TestPipeline_Handler(t *testing.T) {
	p := newTestPipeline(t)
	p.VisionFallback()

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tutor_test_vision_fallbacks_total 1")
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.QuestionsGenerated(OutcomeSuccess)
	r.ObserveGeneration(context.Background(), "dialogue", time.Second, false)
}

func TestCloudWatchDisabledOutsideProduction(t *testing.T) {
	client, err := NewClient(context.Background(), "development", "")
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	// no-ops while disabled
	client.RecordAPIRequest("/chat", 200, time.Second)
	client.RecordTokenUsage("qwen-max", 3, 2, 1)
	client.RecordGenerationDuration("questions", time.Second, true)
}

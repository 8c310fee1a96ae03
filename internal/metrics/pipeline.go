package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline groups the Prometheus instruments for the tutoring pipeline. Generation
// timings and token usage are also forwarded to CloudWatch and Sentry when those
// sinks are configured.
type Pipeline struct {
	QuestionsGeneratedTotal *prometheus.CounterVec
	AnswerCacheHits         *prometheus.CounterVec
	DialogueTurns           *prometheus.CounterVec
	VisionFallbacks         prometheus.Counter
	RetrievalFailures       *prometheus.CounterVec
	Tokens                  *prometheus.CounterVec
	GenerationLatency       *prometheus.HistogramVec

	gatherer   prometheus.Gatherer
	cloudwatch *Client
	spans      *SentrySpans
}

// NewPipeline registers the instruments on reg. cloudwatch and spans may be nil.
func NewPipeline(namespace string, reg *prometheus.Registry, cloudwatch *Client, spans *SentrySpans) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		QuestionsGeneratedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_generated_total",
			Help:      "Question generation requests by outcome.",
		}, []string{"outcome"}),
		AnswerCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_cache_hits_total",
			Help:      "Answer requests served from the per-caller cache, by hit.",
		}, []string{"hit"}),
		DialogueTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_turns_total",
			Help:      "Dialogue turns by status.",
		}, []string{"status"}),
		VisionFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_fallbacks_total",
			Help:      "Vision calls that fell back to text-only generation.",
		}),
		RetrievalFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_failures_total",
			Help:      "Knowledge retrieval failures by mode.",
		}, []string{"mode"}),
		Tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Model tokens by model and direction.",
		}, []string{"model", "direction"}),
		GenerationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Generation latency in milliseconds by operation.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
		}, []string{"operation"}),
		gatherer:   reg,
		cloudwatch: cloudwatch,
		spans:      spans,
	}
}

func (p *Pipeline) QuestionsGenerated(outcome string) {
	p.QuestionsGeneratedTotal.WithLabelValues(outcome).Inc()
}

func (p *Pipeline) AnswerCacheLookup(hit bool) {
	p.AnswerCacheHits.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

func (p *Pipeline) DialogueTurn(status string) {
	p.DialogueTurns.WithLabelValues(status).Inc()
}

func (p *Pipeline) VisionFallback() {
	p.VisionFallbacks.Inc()
}

func (p *Pipeline) RetrievalFailure(mode string) {
	p.RetrievalFailures.WithLabelValues(mode).Inc()
}

func (p *Pipeline) ObserveGeneration(ctx context.Context, operation string, duration time.Duration, success bool) {
	p.GenerationLatency.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
	if p.cloudwatch != nil {
		p.cloudwatch.RecordGenerationDuration(operation, duration, success)
	}
	if p.spans != nil {
		p.spans.RecordGenerationDuration(ctx, operation, duration, success)
	}
}

func (p *Pipeline) RecordTokens(ctx context.Context, model string, inputTokens, outputTokens, totalTokens int) {
	p.Tokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	p.Tokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	if p.cloudwatch != nil {
		p.cloudwatch.RecordTokenUsage(model, totalTokens, inputTokens, outputTokens)
	}
	if p.spans != nil {
		p.spans.RecordTokenUsage(ctx, model, totalTokens, inputTokens, outputTokens)
	}
}

// RecordAPIRequest forwards one HTTP request to CloudWatch and Sentry
func (p *Pipeline) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if p.cloudwatch != nil {
		p.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
	if p.spans != nil {
		p.spans.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

// Handler serves the registry in the Prometheus exposition format
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

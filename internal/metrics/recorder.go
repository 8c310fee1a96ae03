package metrics

import (
	"context"
	"time"
)

// Outcome labels shared by the pipeline counters
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeCached  = "cached"
	OutcomeEmpty   = "empty"
)

// Recorder receives pipeline events from the question and dialogue orchestrators
type Recorder interface {
	QuestionsGenerated(outcome string)
	AnswerCacheLookup(hit bool)
	DialogueTurn(status string)
	VisionFallback()
	RetrievalFailure(mode string)
	ObserveGeneration(ctx context.Context, operation string, duration time.Duration, success bool)
	RecordTokens(ctx context.Context, model string, inputTokens, outputTokens, totalTokens int)
}

// Nop discards every event
type Nop struct{}

func (Nop) QuestionsGenerated(string)                                       {}
func (Nop) AnswerCacheLookup(bool)                                          {}
func (Nop) DialogueTurn(string)                                             {}
func (Nop) VisionFallback()                                                 {}
func (Nop) RetrievalFailure(string)                                         {}
func (Nop) ObserveGeneration(context.Context, string, time.Duration, bool) {}
func (Nop) RecordTokens(context.Context, string, int, int, int)            {}

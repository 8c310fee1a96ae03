// Package questions turns a free-text request into generated practice questions,
// hiding answers until the caller asks for them.
package questions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/tutor-api/internal/disclosure"
	"github.com/Conceptual-Machines/tutor-api/internal/extract"
	"github.com/Conceptual-Machines/tutor-api/internal/llm"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
	"github.com/Conceptual-Machines/tutor-api/internal/prompt"
	"github.com/Conceptual-Machines/tutor-api/internal/retrieval"
	"github.com/Conceptual-Machines/tutor-api/internal/store"
	"github.com/Conceptual-Machines/tutor-api/internal/vision"
)

const (
	// NoCachedQuestionsMessage answers an answer request before any questions were generated
	NoCachedQuestionsMessage = "当前没有可供解析的题目，请先提出出题需求。"
	// ApologyMessage is returned when generation fails
	ApologyMessage = "抱歉，生成回应时出现问题。请稍后再试。"

	DefaultTemperature = 0.7

	operationQuestions  = "questions"
	operationMultimodal = "questions_multimodal"
)

// Deps are the collaborators of a Service. Vision and Recorder may be nil.
type Deps struct {
	Extractor *extract.Extractor
	Retriever *retrieval.Coordinator
	Assembler *prompt.Assembler
	Provider  llm.Provider
	Vision    *vision.Adapter
	Records   store.Store[models.GenerationRecord]
	Recorder  metrics.Recorder
}

// Config holds the generation settings
type Config struct {
	Model        string
	Temperature  float64
	SystemPrompt string
}

// Service is the question generation pipeline
type Service struct {
	extractor *extract.Extractor
	retriever *retrieval.Coordinator
	assembler *prompt.Assembler
	provider  llm.Provider
	vision    *vision.Adapter
	records   store.Store[models.GenerationRecord]
	recorder  metrics.Recorder
	config    Config
}

// NewService creates a Service. A zero temperature selects DefaultTemperature.
func NewService(deps Deps, cfg Config) *Service {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Service{
		extractor: deps.Extractor,
		retriever: deps.Retriever,
		assembler: deps.Assembler,
		provider:  deps.Provider,
		vision:    deps.Vision,
		records:   deps.Records,
		recorder:  recorder,
		config:    cfg,
	}
}

// MultimodalEnabled reports whether image requests reach a vision model
func (s *Service) MultimodalEnabled() bool {
	return s.vision != nil
}

// Extract exposes the parameter extractor
func (s *Service) Extract(rawText string) models.InterpretedRequest {
	return s.extractor.Extract(rawText)
}

// Generate answers one request. Answer requests are served from the caller's
// last generation; anything else generates new questions, caches the full output
// and returns it with answers removed. It never fails: errors become ApologyMessage.
func (s *Service) Generate(ctx context.Context, rawText, callerID string) string {
	if IsAnswerRequest(rawText) {
		return s.cachedAnswer(ctx, callerID)
	}

	start := time.Now()
	record, err := s.generate(ctx, rawText)
	s.recorder.ObserveGeneration(ctx, operationQuestions, time.Since(start), err == nil)
	if err != nil {
		logger.Error("Question generation failed", err, logger.Fields{
			"component": "questions",
			"caller_id": callerID,
		})
		s.recorder.QuestionsGenerated(metrics.OutcomeError)
		return ApologyMessage
	}

	s.save(ctx, callerID, record)
	s.recorder.QuestionsGenerated(metrics.OutcomeSuccess)
	return record.DisclosedText
}

// GenerateMultimodal handles a request with an optional image. Without an image or a
// vision adapter it behaves like Generate. Image requests go straight to the vision
// adapter; the reply has answers removed only when the text asks for questions.
// When the adapter fails, including its own text fallback, it returns ApologyMessage.
func (s *Service) GenerateMultimodal(ctx context.Context, rawText, callerID, imagePath string) string {
	if imagePath == "" || s.vision == nil {
		return s.Generate(ctx, rawText, callerID)
	}
	if IsAnswerRequest(rawText) {
		return s.cachedAnswer(ctx, callerID)
	}

	start := time.Now()
	messages := vision.AttachImage([]llm.Message{{Role: llm.RoleUser, Content: rawText}}, imagePath)
	resp, err := s.vision.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: s.config.SystemPrompt,
		Messages:     messages,
		Temperature:  llm.Float(s.config.Temperature),
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = fmt.Errorf("%w: empty reply", llm.ErrMalformedResponse)
	}
	s.recorder.ObserveGeneration(ctx, operationMultimodal, time.Since(start), err == nil)
	if err != nil {
		// the adapter has already tried its text fallback
		logger.Error("Multimodal generation failed", err, logger.Fields{
			"component": "questions",
			"caller_id": callerID,
		})
		s.recorder.QuestionsGenerated(metrics.OutcomeError)
		return ApologyMessage
	}

	record := models.GenerationRecord{
		FullText:      resp.Text,
		DisclosedText: disclosure.Strip(resp.Text),
	}
	s.save(ctx, callerID, record)
	s.recorder.QuestionsGenerated(metrics.OutcomeSuccess)

	if IsQuestionRequest(rawText) {
		return record.DisclosedText
	}
	return record.FullText
}

func (s *Service) generate(ctx context.Context, rawText string) (models.GenerationRecord, error) {
	req := s.extractor.Extract(rawText)

	snippets, err := s.retriever.Retrieve(ctx, req.Topics, "")
	if err != nil {
		// generation continues without reference material
		logger.Warn("Retrieval unavailable, generating without context", logger.Fields{
			"component": "questions",
			"topics":    strings.Join(req.Topics, ","),
			"error":     err.Error(),
		})
		s.recorder.RetrievalFailure(operationQuestions)
		snippets = models.RetrievedContext{}
	}

	userPrompt, err := s.assembler.Assemble(req, snippets)
	if err != nil {
		return models.GenerationRecord{}, fmt.Errorf("failed to assemble prompt: %w", err)
	}

	resp, err := s.provider.Complete(ctx, &llm.CompletionRequest{
		Model:        s.config.Model,
		SystemPrompt: s.config.SystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		Temperature:  llm.Float(s.config.Temperature),
	})
	if err != nil {
		return models.GenerationRecord{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return models.GenerationRecord{}, fmt.Errorf("%w: empty reply", llm.ErrMalformedResponse)
	}

	logger.Info("Questions generated", logger.Fields{
		"component":    "questions",
		"topics":       strings.Join(req.Topics, ","),
		"quantity":     req.Quantity,
		"primary_type": string(req.PrimaryType),
		"snippets":     len(snippets),
	})

	return models.GenerationRecord{
		FullText:      resp.Text,
		DisclosedText: disclosure.Strip(resp.Text),
	}, nil
}

func (s *Service) cachedAnswer(ctx context.Context, callerID string) string {
	record, ok, err := s.records.Get(ctx, callerID)
	if err != nil {
		logger.Error("Failed to read generation record", err, logger.Fields{
			"component": "questions",
			"caller_id": callerID,
		})
	}
	hit := ok && err == nil && record.FullText != ""
	s.recorder.AnswerCacheLookup(hit)
	if !hit {
		return NoCachedQuestionsMessage
	}
	return record.FullText
}

func (s *Service) save(ctx context.Context, callerID string, record models.GenerationRecord) {
	if err := s.records.Put(ctx, callerID, record); err != nil {
		logger.Error("Failed to store generation record", err, logger.Fields{
			"component": "questions",
			"caller_id": callerID,
		})
	}
}


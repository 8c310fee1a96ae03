// Package app wires the tutoring services from configuration. It is shared by the
// HTTP server and the tutorctl CLI.
package app

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/tutor-api/internal/config"
	"github.com/Conceptual-Machines/tutor-api/internal/dialogue"
	"github.com/Conceptual-Machines/tutor-api/internal/extract"
	"github.com/Conceptual-Machines/tutor-api/internal/knowledge"
	"github.com/Conceptual-Machines/tutor-api/internal/llm"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
	"github.com/Conceptual-Machines/tutor-api/internal/mindmap"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
	"github.com/Conceptual-Machines/tutor-api/internal/observability"
	"github.com/Conceptual-Machines/tutor-api/internal/prompt"
	"github.com/Conceptual-Machines/tutor-api/internal/questions"
	"github.com/Conceptual-Machines/tutor-api/internal/retrieval"
	"github.com/Conceptual-Machines/tutor-api/internal/store"
	"github.com/Conceptual-Machines/tutor-api/internal/vision"
)

// Operation names reported to Langfuse
const (
	operationGeneration = "generation"
	operationIntent     = "intent"
	operationVision     = "vision"
)

// Knowledge is the similarity-search backend of one subject
type Knowledge struct {
	Store    knowledge.Store
	Embedder knowledge.Embedder
	Index    *knowledge.Index
	Source   string
}

// NewKnowledge opens the chunk store and embedding engine for the profile's source
func NewKnowledge(ctx context.Context, cfg *config.Config, profile *config.SubjectProfile) (*Knowledge, error) {
	chunkStore, err := knowledge.NewStore(ctx, cfg.DatabaseURL, cfg.KnowledgeSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge store: %w", err)
	}

	embedder, err := knowledge.NewEmbedder(ctx, knowledge.EmbedderConfig{
		Provider:      cfg.EmbeddingProvider,
		Model:         cfg.EmbeddingModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiAPIKey:  cfg.GeminiAPIKey,
	})
	if err != nil {
		_ = chunkStore.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Knowledge{
		Store:    chunkStore,
		Embedder: embedder,
		Index:    knowledge.NewIndex(embedder, chunkStore, profile.KnowledgeSourceID),
		Source:   profile.KnowledgeSourceID,
	}, nil
}

// App holds the services behind the HTTP and CLI surfaces
type App struct {
	Config    *config.Config
	Profile   *config.SubjectProfile
	Knowledge *Knowledge
	Questions *questions.Service
	Mindmap   *mindmap.Builder
	Agent     *dialogue.Agent
	Sessions  *dialogue.Sessions
	Langfuse  *observability.LangfuseClient
}

// New builds every service. recorder may be nil.
func New(ctx context.Context, cfg *config.Config, profile *config.SubjectProfile, recorder metrics.Recorder) (*App, error) {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	loader, err := prompt.NewPromptLoader()
	if err != nil {
		return nil, err
	}

	kb, err := NewKnowledge(ctx, cfg, profile)
	if err != nil {
		return nil, err
	}

	lf := observability.InitializeLangfuse(ctx, cfg)
	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GeminiAPIKey)

	textProvider, err := factory.GetProvider(ctx, cfg.TextModel, cfg.TextProvider)
	if err != nil {
		_ = kb.Store.Close()
		return nil, fmt.Errorf("failed to create text provider: %w", err)
	}
	intentProvider, err := factory.GetProvider(ctx, cfg.IntentModel, cfg.TextProvider)
	if err != nil {
		_ = kb.Store.Close()
		return nil, fmt.Errorf("failed to create intent provider: %w", err)
	}

	text := observability.NewTracedProvider(textProvider, lf, recorder, operationGeneration)
	intent := observability.NewTracedProvider(intentProvider, lf, recorder, operationIntent)

	var adapter *vision.Adapter
	if cfg.VisionEnabled() {
		visionProvider, err := factory.GetProvider(ctx, cfg.VisionModel, cfg.VisionProvider)
		if err != nil {
			_ = kb.Store.Close()
			return nil, fmt.Errorf("failed to create vision provider: %w", err)
		}
		adapter = vision.NewAdapter(
			observability.NewTracedProvider(visionProvider, lf, recorder, operationVision),
			text,
			vision.Config{VisionModel: cfg.VisionModel, TextModel: cfg.TextModel, Timeout: cfg.VisionTimeout},
			recorder,
		)
	}

	questionService := questions.NewService(questions.Deps{
		Extractor: extract.New(profile.CommonTopics, profile.DefaultTopic),
		Retriever: retrieval.NewCoordinator(kb.Index, profile.SubjectLabel, retrieval.QuestionTopK),
		Assembler: prompt.NewAssembler(loader, profile.SubjectLabel),
		Provider:  text,
		Vision:    adapter,
		Records:   store.NewMemory[models.GenerationRecord](),
		Recorder:  recorder,
	}, questions.Config{
		Model:        cfg.TextModel,
		SystemPrompt: profile.QuestionPersona,
	})

	mindmapBuilder := mindmap.NewBuilder(mindmap.Deps{
		Loader:    loader,
		Retriever: retrieval.NewCoordinator(kb.Index, profile.SubjectLabel, retrieval.QuestionTopK),
		Provider:  text,
		Recorder:  recorder,
	}, mindmap.Config{
		SubjectLabel: profile.SubjectLabel,
		Model:        cfg.TextModel,
	})

	agent := dialogue.NewAgent(dialogue.Deps{
		Loader:         loader,
		Retriever:      retrieval.NewCoordinator(kb.Index, profile.SubjectLabel, retrieval.DialogueTopK),
		Provider:       text,
		IntentProvider: intent,
		Vision:         adapter,
		Recorder:       recorder,
	}, dialogue.Config{
		SubjectLabel:   profile.SubjectLabel,
		DefaultTopic:   profile.DialogueTopic,
		DefaultPersona: profile.DefaultPersona,
		Model:          cfg.TextModel,
		IntentModel:    cfg.IntentModel,
	})

	logger.Info("Services initialized", logger.Fields{
		"component":    "app",
		"subject":      profile.SubjectLabel,
		"source":       profile.KnowledgeSourceID,
		"text_model":   cfg.TextModel,
		"intent_model": cfg.IntentModel,
		"vision_model": cfg.VisionModel,
		"embedder":     kb.Embedder.Name(),
	})

	return &App{
		Config:    cfg,
		Profile:   profile,
		Knowledge: kb,
		Questions: questionService,
		Mindmap:   mindmapBuilder,
		Agent:     agent,
		Sessions:  dialogue.NewSessions(agent, store.NewMemory[models.DialogueState]()),
		Langfuse:  lf,
	}, nil
}

// Close flushes traces and releases the knowledge store
func (a *App) Close(ctx context.Context) error {
	a.Langfuse.Flush(ctx)
	return a.Knowledge.Store.Close()
}

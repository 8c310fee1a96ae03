// Package dialogue runs persona-based Socratic dialogues turn by turn.
package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Conceptual-Machines/tutor-api/internal/llm"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
	"github.com/Conceptual-Machines/tutor-api/internal/prompt"
	"github.com/Conceptual-Machines/tutor-api/internal/retrieval"
	"github.com/Conceptual-Machines/tutor-api/internal/vision"
)

const (
	// ApologyMessage is the reply of a failed turn
	ApologyMessage = "抱歉，生成回应时出现问题。请稍后再试。"

	DefaultTemperature = 0.8

	operationDialogue = "dialogue"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Deps are the collaborators of an Agent. IntentProvider defaults to Provider;
// Vision and Recorder may be nil.
type Deps struct {
	Loader         *prompt.Loader
	Retriever      *retrieval.Coordinator
	Provider       llm.Provider
	IntentProvider llm.Provider
	Vision         *vision.Adapter
	Recorder       metrics.Recorder
}

// Config holds the subject defaults and generation settings
type Config struct {
	SubjectLabel   string
	DefaultTopic   string
	DefaultPersona string
	Model          string
	IntentModel    string
	Temperature    float64
}

// Result is the outcome of one turn
type Result struct {
	Status   models.DialogueStatus `json:"status"`
	Response string                `json:"response"`
	State    *models.DialogueState `json:"state"`
}

// Agent advances dialogue states. It holds no per-session state.
type Agent struct {
	loader         *prompt.Loader
	retriever      *retrieval.Coordinator
	provider       llm.Provider
	intentProvider llm.Provider
	vision         *vision.Adapter
	recorder       metrics.Recorder
	config         Config
}

// NewAgent creates an Agent. A zero temperature selects DefaultTemperature.
func NewAgent(deps Deps, cfg Config) *Agent {
	if deps.IntentProvider == nil {
		deps.IntentProvider = deps.Provider
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop{}
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.IntentModel == "" {
		cfg.IntentModel = cfg.Model
	}
	return &Agent{
		loader:         deps.Loader,
		retriever:      deps.Retriever,
		provider:       deps.Provider,
		intentProvider: deps.IntentProvider,
		vision:         deps.Vision,
		recorder:       deps.Recorder,
		config:         cfg,
	}
}

// Advance runs one text turn. A nil state starts a new dialogue.
func (a *Agent) Advance(ctx context.Context, userText string, state *models.DialogueState) Result {
	return a.advance(ctx, userText, state, "")
}

// AdvanceMultimodal runs one turn with an optional image. The image is sent only on
// this turn; its path is kept as the state's last image reference.
func (a *Agent) AdvanceMultimodal(ctx context.Context, userText string, state *models.DialogueState, imagePath string) Result {
	return a.advance(ctx, userText, state, imagePath)
}

func (a *Agent) advance(ctx context.Context, userText string, state *models.DialogueState, imagePath string) Result {
	start := time.Now()

	prior := state.Clone()
	if prior == nil {
		topic, persona := a.parseIntent(ctx, userText)
		prior = &models.DialogueState{
			Topic:   topic,
			Persona: persona,
			History: []models.Turn{},
			Status:  models.StatusContinue,
		}
	}

	next := prior.Clone()
	next.History = append(next.History, models.Turn{Role: models.RoleUser, Text: userText})
	if imagePath != "" {
		next.LastImageReference = imagePath
	}

	reply, err := a.respond(ctx, next, imagePath)
	a.recorder.ObserveGeneration(ctx, operationDialogue, time.Since(start), err == nil)
	if err != nil {
		logger.Error("Dialogue turn failed", err, logger.Fields{
			"component": "dialogue",
			"topic":     prior.Topic,
			"persona":   prior.Persona,
			"turn":      prior.TurnCount,
		})
		a.recorder.DialogueTurn(string(models.StatusError))
		prior.Status = models.StatusError
		return Result{Status: models.StatusError, Response: ApologyMessage, State: prior}
	}

	next.History = append(next.History, models.Turn{Role: models.RoleAssistant, Text: reply})
	next.TurnCount++
	next.Status = models.StatusContinue
	a.recorder.DialogueTurn(string(models.StatusContinue))

	return Result{Status: models.StatusContinue, Response: reply, State: next}
}

// respond retrieves context for the state's topic and persona and generates the reply.
// A missing knowledge index fails the turn.
func (a *Agent) respond(ctx context.Context, state *models.DialogueState, imagePath string) (string, error) {
	snippets, err := a.retriever.Retrieve(ctx, []string{state.Topic}, state.Persona)
	if err != nil {
		a.recorder.RetrievalFailure(operationDialogue)
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	systemPrompt, err := a.loader.DialogueSystemPrompt(state.Persona, state.Topic, a.config.SubjectLabel, snippets.Texts())
	if err != nil {
		return "", fmt.Errorf("failed to render dialogue prompt: %w", err)
	}

	request := &llm.CompletionRequest{
		Model:        a.config.Model,
		SystemPrompt: systemPrompt,
		Messages:     historyMessages(state.History),
		Temperature:  llm.Float(a.config.Temperature),
	}

	var resp *llm.CompletionResponse
	if imagePath != "" && a.vision != nil {
		request.Messages = vision.AttachImage(request.Messages, imagePath)
		resp, err = a.vision.Complete(ctx, request)
	} else {
		resp, err = a.provider.Complete(ctx, request)
	}
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", llm.ErrMalformedResponse)
	}
	return reply, nil
}

type intent struct {
	Topic     string `json:"topic"`
	Character string `json:"character"`
	Persona   string `json:"persona"`
}

// parseIntent asks the intent model for the topic and persona. Any failure falls
// back to the configured defaults.
func (a *Agent) parseIntent(ctx context.Context, userText string) (string, string) {
	topic, persona := a.config.DefaultTopic, a.config.DefaultPersona

	userPrompt, err := a.loader.IntentPrompt(userText, topic, persona)
	if err != nil {
		logger.Warn("Intent prompt failed, using defaults", logger.Fields{"component": "dialogue", "error": err.Error()})
		return topic, persona
	}

	resp, err := a.intentProvider.Complete(ctx, &llm.CompletionRequest{
		Model:        a.config.IntentModel,
		SystemPrompt: prompt.IntentSystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		Temperature:  llm.Float(0),
		OutputSchema: llm.GetIntentOutputSchema(),
	})
	if err != nil {
		logger.Warn("Intent call failed, using defaults", logger.Fields{"component": "dialogue", "error": err.Error()})
		return topic, persona
	}

	parsed, err := ParseIntent(resp.Text)
	if err != nil {
		logger.Warn("Intent parsing failed, using defaults", logger.Fields{"component": "dialogue", "error": err.Error()})
		return topic, persona
	}

	if parsed.Topic != "" {
		topic = parsed.Topic
	}
	if parsed.Persona != "" {
		persona = parsed.Persona
	}
	logger.Info("Dialogue intent parsed", logger.Fields{"component": "dialogue", "topic": topic, "persona": persona})
	return topic, persona
}

// Intent is the decoded topic and persona of an opening message
type Intent struct {
	Topic   string
	Persona string
}

var errNoJSONObject = errors.New("no JSON object in intent reply")

// ParseIntent decodes the first {...} span of the reply as {"topic", "character"}.
// "persona" is accepted in place of "character". Values are trimmed.
func ParseIntent(reply string) (Intent, error) {
	match := jsonObjectRe.FindString(reply)
	if match == "" {
		return Intent{}, errNoJSONObject
	}

	var raw intent
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return Intent{}, fmt.Errorf("invalid intent JSON: %w", err)
	}

	persona := raw.Character
	if persona == "" {
		persona = raw.Persona
	}
	return Intent{Topic: strings.TrimSpace(raw.Topic), Persona: strings.TrimSpace(persona)}, nil
}

func historyMessages(history []models.Turn) []llm.Message {
	messages := make([]llm.Message, len(history))
	for i, turn := range history {
		role := llm.RoleUser
		if turn.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages[i] = llm.Message{Role: role, Content: turn.Text}
	}
	return messages
}

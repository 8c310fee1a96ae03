// Package mindmap draws Mermaid knowledge maps of a course topic from the
// retrieved course material.
package mindmap

import (
	"context"
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
)

const (
	// ApologyMessage is returned when the map cannot be generated
	ApologyMessage = "抱歉，生成知识图谱时出现问题。请稍后再试。"

	DefaultTemperature = 0.3

	operationMindmap = "mindmap"
)

// triggerKeywords route a chat message to the knowledge map
var triggerKeywords = []string{"知识图谱", "思维导图", "图谱"}

// requestNoise is removed, in order, when recovering the topic of a request
var requestNoise = []string{
	"知识图谱", "思维导图", "图谱", "生成", "制作", "构建", "画出", "画", "帮我", "请", "关于", "：", ":",
}

var (
	mindmapWordRe  = regexp.MustCompile(`(?i)mind\s*map`)
	mermaidBlockRe = regexp.MustCompile("(?is)```\\s*mermaid\\s*\\n(.*?)```")
)

// IsRequest reports whether text asks for a knowledge map
func IsRequest(text string) bool {
	for _, kw := range triggerKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return mindmapWordRe.MatchString(text)
}

// ExtractTopic strips the request wording from text. When nothing is left the
// whole text is the topic.
func ExtractTopic(text string) string {
	topic := mindmapWordRe.ReplaceAllString(text, "")
	for _, kw := range requestNoise {
		topic = strings.ReplaceAll(topic, kw, "")
	}
	topic = strings.TrimLeft(strings.TrimSpace(topic), "，,。 、")
	topic = strings.TrimRight(topic, "的，,。 、？?！!")
	if topic == "" {
		return strings.TrimSpace(text)
	}
	return topic
}

// MermaidBlock returns the body of the first ```mermaid fence in text
func MermaidBlock(text string) (string, bool) {
	m := mermaidBlockRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Deps are the collaborators of a Builder. Recorder may be nil.
type Deps struct {
	Loader    *prompt.Loader
	Retriever *retrieval.Coordinator
	Provider  llm.Provider
	Recorder  metrics.Recorder
}

type Config struct {
	SubjectLabel string
	Model        string
	Temperature  float64
}

// Builder generates knowledge maps
type Builder struct {
	loader    *prompt.Loader
	retriever *retrieval.Coordinator
	provider  llm.Provider
	recorder  metrics.Recorder
	config    Config
}

// NewBuilder creates a Builder. A zero temperature selects DefaultTemperature.
func NewBuilder(deps Deps, cfg Config) *Builder {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Builder{
		loader:    deps.Loader,
		retriever: deps.Retriever,
		provider:  deps.Provider,
		recorder:  recorder,
		config:    cfg,
	}
}

// Build answers a knowledge-map request with Mermaid code and a summary. It never
// fails: errors become ApologyMessage.
func (b *Builder) Build(ctx context.Context, text string) string {
	topic := ExtractTopic(text)

	start := time.Now()
	reply, err := b.build(ctx, topic)
	b.recorder.ObserveGeneration(ctx, operationMindmap, time.Since(start), err == nil)
	if err != nil {
		logger.Error("Knowledge map generation failed", err, logger.Fields{
			"component": "mindmap",
			"topic":     topic,
		})
		return ApologyMessage
	}
	return reply
}

func (b *Builder) build(ctx context.Context, topic string) (string, error) {
	snippets, err := b.retriever.Retrieve(ctx, []string{topic}, "")
	if err != nil {
		logger.Warn("Retrieval unavailable, drawing map without context", logger.Fields{
			"component": "mindmap",
			"topic":     topic,
			"error":     err.Error(),
		})
		b.recorder.RetrievalFailure(operationMindmap)
		snippets = models.RetrievedContext{}
	}

	userPrompt, err := b.loader.MindmapPrompt(topic, b.config.SubjectLabel, snippets.Texts())
	if err != nil {
		return "", fmt.Errorf("failed to assemble prompt: %w", err)
	}

	resp, err := b.provider.Complete(ctx, &llm.CompletionRequest{
		Model:        b.config.Model,
		SystemPrompt: prompt.MindmapSystemPrompt(b.config.SubjectLabel),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		Temperature:  llm.Float(b.config.Temperature),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: empty reply", llm.ErrMalformedResponse)
	}

	if _, ok := MermaidBlock(resp.Text); !ok {
		logger.Warn("Knowledge map reply has no Mermaid block", logger.Fields{
			"component": "mindmap",
			"topic":     topic,
		})
	}
	logger.Info("Knowledge map generated", logger.Fields{
		"component": "mindmap",
		"topic":     topic,
		"snippets":  len(snippets),
	})
	return resp.Text, nil
}

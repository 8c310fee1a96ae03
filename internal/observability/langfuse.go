package observability

import (
	"context"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/Conceptual-Machines/tutor-api/internal/config"
	"github.com/Conceptual-Machines/tutor-api/internal/llm"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
)

const levelError = "ERROR"

// LangfuseClient wraps the Langfuse client with our configuration
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
}

// InitializeLangfuse creates the Langfuse client. The SDK reads LANGFUSE_HOST,
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY from the environment.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		logger.Info("Langfuse not configured", logger.Fields{"component": "observability"})
		return &LangfuseClient{}
	}

	logger.Info("Langfuse initialized", logger.Fields{
		"component":      "observability",
		"host":           cfg.LangfuseHost,
		"public_key_set": cfg.LangfusePublicKey != "",
	})
	return &LangfuseClient{client: langfuse.New(ctx), enabled: true}
}

// IsEnabled returns whether Langfuse is enabled
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Flush sends all queued events. Called on shutdown.
func (c *LangfuseClient) Flush(ctx context.Context) {
	if c.IsEnabled() {
		c.client.Flush(ctx)
	}
}

// StartTrace starts a new trace in Langfuse
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]any) *Trace {
	if !c.IsEnabled() {
		return &Trace{}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		logger.Warn("Failed to create Langfuse trace", logger.Fields{"component": "observability", "error": err.Error()})
		return &Trace{}
	}

	return &Trace{trace: trace, enabled: true, ctx: ctx, client: c.client}
}

// Trace represents a Langfuse trace
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Generation creates a new generation span within the trace
func (t *Trace) Generation(name, modelName string, input any) *Generation {
	if !t.enabled {
		return &Generation{}
	}

	now := time.Now()
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		Model:     modelName,
		StartTime: &now,
		Input:     input,
	}, nil)
	if err != nil {
		logger.Warn("Failed to create Langfuse generation", logger.Fields{"component": "observability", "error": err.Error()})
		return &Generation{}
	}

	return &Generation{generation: gen, enabled: true, client: t.client}
}

// Finish flushes the trace's queued events
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// Generation represents a Langfuse generation span
type Generation struct {
	generation *model.Generation
	enabled    bool
	client     *langfuse.Langfuse
}

// Succeed records the output and token usage with its USD cost
func (g *Generation) Succeed(modelName string, resp *llm.CompletionResponse) {
	if !g.enabled {
		return
	}
	inputCost, outputCost := CalculateCost(modelName, resp.Usage)
	g.generation.Output = resp.Text
	g.generation.Usage = model.Usage{
		Input:      resp.Usage.InputTokens,
		Output:     resp.Usage.OutputTokens,
		Total:      resp.Usage.TotalTokens,
		Unit:       model.ModelUsageUnitTokens,
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost + outputCost,
	}
	g.generation.Metadata = map[string]any{"cost_usd": FormatCost(inputCost + outputCost)}
}

// Fail marks the generation as failed
func (g *Generation) Fail(err error) {
	if !g.enabled {
		return
	}
	g.generation.Level = model.ObservationLevel(levelError)
	g.generation.Metadata = map[string]any{"error": err.Error()}
}

// Finish completes the generation and queues it for sending
func (g *Generation) Finish() {
	if !g.enabled {
		return
	}
	now := time.Now()
	g.generation.EndTime = &now
	if _, err := g.client.GenerationEnd(g.generation); err != nil {
		logger.Warn("Failed to end Langfuse generation", logger.Fields{"component": "observability", "error": err.Error()})
	}
}

// TracedProvider wraps a provider with one Langfuse trace and generation per call
// and reports token usage to the metrics recorder.
type TracedProvider struct {
	inner     llm.Provider
	langfuse  *LangfuseClient
	recorder  metrics.Recorder
	operation string
}

var _ llm.Provider = (*TracedProvider)(nil)

// NewTracedProvider wraps inner. client and recorder may be nil.
func NewTracedProvider(inner llm.Provider, client *LangfuseClient, recorder metrics.Recorder, operation string) *TracedProvider {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &TracedProvider{inner: inner, langfuse: client, recorder: recorder, operation: operation}
}

func (p *TracedProvider) Name() string {
	return p.inner.Name()
}

// Complete delegates to the wrapped provider
func (p *TracedProvider) Complete(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	trace := p.langfuse.StartTrace(ctx, p.operation, map[string]any{
		"provider":   p.inner.Name(),
		"multimodal": request.HasImage(),
	})
	defer trace.Finish()

	gen := trace.Generation(p.operation, request.Model, traceInput(request))
	defer gen.Finish()

	start := time.Now()
	resp, err := p.inner.Complete(ctx, request)
	if err != nil {
		gen.Fail(err)
		return nil, err
	}

	modelName := resp.Model
	if modelName == "" {
		modelName = request.Model
	}
	gen.Succeed(modelName, resp)
	logger.LogGenerationRequest(ctx, modelName, time.Since(start), resp.Usage.InputTokens, resp.Usage.OutputTokens, logger.Fields{
		"component": "observability",
		"operation": p.operation,
		"provider":  p.inner.Name(),
	})
	p.recorder.RecordTokens(ctx, modelName, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)
	return resp, nil
}

// traceInput renders the request as role/content pairs. Image bytes are replaced by
// their name and MIME type.
func traceInput(request *llm.CompletionRequest) []map[string]any {
	input := make([]map[string]any, 0, len(request.Messages)+1)
	if request.SystemPrompt != "" {
		input = append(input, map[string]any{"role": "system", "content": request.SystemPrompt})
	}
	for _, m := range request.Messages {
		entry := map[string]any{"role": string(m.Role), "content": m.Content}
		if m.Image != nil {
			entry["image"] = map[string]any{"name": m.Image.Name, "mime_type": m.Image.MIMEType, "bytes": len(m.Image.Data)}
		}
		input = append(input, entry)
	}
	return input
}

package vision

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Conceptual-Machines/tutor-api/internal/llm"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
)

// FallbackNotice prefixes replies produced by the text-only fallback
const FallbackNotice = "（图片分析暂不可用，以下为纯文本回答）\n\n"

const defaultTimeout = 30 * time.Second

// Config selects the models used on each path
type Config struct {
	VisionModel string
	TextModel   string
	// Timeout bounds the vision call before falling back
	Timeout time.Duration
}

// Adapter sends a conversation to a vision model and, when that fails for any reason,
// re-sends it as text only and marks the reply with FallbackNotice.
type Adapter struct {
	vision   llm.Provider
	text     llm.Provider
	config   Config
	recorder metrics.Recorder
}

// NewAdapter creates an adapter. recorder may be nil.
func NewAdapter(vision, text llm.Provider, cfg Config, recorder metrics.Recorder) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Adapter{
		vision:   vision,
		text:     text,
		config:   cfg,
		recorder: recorder,
	}
}

// Complete runs the request on the vision model. Only the first image in the message
// list is sent. The returned error is non-nil only when the text-only retry fails too.
func (a *Adapter) Complete(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	visionRequest := &llm.CompletionRequest{
		Model:        a.config.VisionModel,
		SystemPrompt: request.SystemPrompt,
		Messages:     firstImageOnly(request.Messages),
		Temperature:  request.Temperature,
	}

	resp, err := a.completeVision(ctx, visionRequest)
	if err == nil {
		return resp, nil
	}

	logger.Warn("Vision call failed, retrying as text only", logger.Fields{
		"component": "vision",
		"model":     a.config.VisionModel,
		"error":     err.Error(),
	})
	a.recorder.VisionFallback()

	textRequest := &llm.CompletionRequest{
		Model:        a.config.TextModel,
		SystemPrompt: request.SystemPrompt,
		Messages:     TextOnly(request.Messages),
		Temperature:  request.Temperature,
	}
	resp, err = a.text.Complete(ctx, textRequest)
	if err != nil {
		return nil, fmt.Errorf("text-only fallback failed: %w", err)
	}

	resp.Text = FallbackNotice + resp.Text
	return resp, nil
}

func (a *Adapter) completeVision(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	visionCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	resp, err := a.vision.Complete(visionCtx, request)
	if err != nil {
		if errors.Is(visionCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("vision call timed out after %v: %w", a.config.Timeout, err)
		}
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("%w: empty vision response", llm.ErrMalformedResponse)
	}
	return resp, nil
}

// AttachImage loads the image at path onto the last user message, the turn the
// image was sent with; earlier turns are replayed as text. An image that cannot be
// processed is replaced by its placeholder text in the message content.
func AttachImage(messages []llm.Message, path string) []llm.Message {
	out := append([]llm.Message(nil), messages...)
	idx := -1
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == llm.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 || path == "" {
		return out
	}

	img, err := LoadImage(path)
	if err != nil {
		logger.Warn("Image preprocessing failed", logger.Fields{
			"component": "vision",
			"error":     err.Error(),
		})
		out[idx].Content = joinText(out[idx].Content, Placeholder(filepath.Base(path)))
		out[idx].Image = nil
		return out
	}

	out[idx].Image = img
	return out
}

// TextOnly drops every image, keeping message text
func TextOnly(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func firstImageOnly(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	seen := false
	for i, m := range messages {
		out[i] = m
		if m.Image == nil {
			continue
		}
		if seen {
			out[i].Image = nil
		}
		seen = true
	}
	return out
}

func joinText(text, extra string) string {
	if text == "" {
		return extra
	}
	return text + "\n" + extra
}

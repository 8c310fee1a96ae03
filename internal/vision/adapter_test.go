package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Conceptual-Machines/tutor-api/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockProvider is a test implementation of llm.Provider
type MockProvider struct {
	name         string
	completeFunc func(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, request)
	}
	return &llm.CompletionResponse{}, nil
}

type countingRecorder struct {
	fallbacks int
}

func (r *countingRecorder) QuestionsGenerated(string)                                       {}
func (r *countingRecorder) AnswerCacheLookup(bool)                                          {}
func (r *countingRecorder) DialogueTurn(string)                                             {}
func (r *countingRecorder) VisionFallback()                                                 { r.fallbacks++ }
func (r *countingRecorder) RetrievalFailure(string)                                         {}
func (r *countingRecorder) ObserveGeneration(context.Context, string, time.Duration, bool) {}
func (r *countingRecorder) RecordTokens(context.Context, string, int, int, int)            {}

func imageRequest() *llm.CompletionRequest {
	return &llm.CompletionRequest{
		SystemPrompt: "sys",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "第一张", Image: &llm.Image{Data: []byte{1}, MIMEType: "image/png"}},
			{Role: llm.RoleAssistant, Content: "好的"},
			{Role: llm.RoleUser, Content: "第二张", Image: &llm.Image{Data: []byte{2}, MIMEType: "image/png"}},
		},
	}
}

func TestAdapter_VisionSuccess(t *testing.T) {
	var seen *llm.CompletionRequest
	vision := &MockProvider{
		name: "vision",
		completeFunc: func(_ context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seen = request
			return &llm.CompletionResponse{Text: "图中是一本书"}, nil
		},
	}
	text := &MockProvider{
		completeFunc: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			t.Fatal("text provider must not be called")
			return nil, nil
		},
	}

	adapter := NewAdapter(vision, text, Config{VisionModel: "qwen-vl-max", TextModel: "qwen-max"}, nil)
	resp, err := adapter.Complete(context.Background(), imageRequest())
	require.NoError(t, err)
	assert.Equal(t, "图中是一本书", resp.Text)

	require.NotNil(t, seen)
	assert.Equal(t, "qwen-vl-max", seen.Model)
	assert.NotNil(t, seen.Messages[0].Image)
	assert.Nil(t, seen.Messages[2].Image, "only the first image is sent")
}

func TestAdapter_FallbackOnError(t *testing.T) {
	tests := []struct {
		name      string
		visionErr error
		visionOut *llm.CompletionResponse
	}{
		{name: "quota", visionErr: llm.ErrQuota},
		{name: "unsupported modality", visionErr: llm.ErrUnsupportedModality},
		{name: "empty response", visionOut: &llm.CompletionResponse{Text: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision := &MockProvider{
				completeFunc: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
					return tt.visionOut, tt.visionErr
				},
			}
			var textReq *llm.CompletionRequest
			text := &MockProvider{
				completeFunc: func(_ context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
					textReq = request
					return &llm.CompletionResponse{Text: "纯文本回答"}, nil
				},
			}
			recorder := &countingRecorder{}

			adapter := NewAdapter(vision, text, Config{VisionModel: "v", TextModel: "t"}, recorder)
			resp, err := adapter.Complete(context.Background(), imageRequest())
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(resp.Text, FallbackNotice))
			assert.Equal(t, FallbackNotice+"纯文本回答", resp.Text)
			assert.Equal(t, 1, recorder.fallbacks)

			require.NotNil(t, textReq)
			assert.Equal(t, "t", textReq.Model)
			assert.False(t, textReq.HasImage())
			assert.Equal(t, "第一张", textReq.Messages[0].Content)
		})
	}
}

func TestAdapter_FallbackNeverEmpty(t *testing.T) {
	vision := &MockProvider{
		completeFunc: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("boom")
		},
	}
	text := &MockProvider{
		completeFunc: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{}, nil
		},
	}

	resp, err := NewAdapter(vision, text, Config{}, nil).Complete(context.Background(), imageRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
	assert.Contains(t, resp.Text, FallbackNotice)
}

func TestAdapter_TimeoutFallsBack(t *testing.T) {
	vision := &MockProvider{
		completeFunc: func(ctx context.Context, _ *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	text := &MockProvider{
		completeFunc: func(ctx context.Context, _ *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			require.NoError(t, ctx.Err(), "fallback runs on the caller context")
			return &llm.CompletionResponse{Text: "ok"}, nil
		},
	}

	adapter := NewAdapter(vision, text, Config{Timeout: 20 * time.Millisecond}, nil)
	resp, err := adapter.Complete(context.Background(), imageRequest())
	require.NoError(t, err)
	assert.Equal(t, FallbackNotice+"ok", resp.Text)
}

func TestAdapter_BothFail(t *testing.T) {
	failing := &MockProvider{
		completeFunc: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, llm.ErrTransport
		},
	}

	_, err := NewAdapter(failing, failing, Config{}, nil).Complete(context.Background(), imageRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrTransport)
}

func TestAttachImage(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	require.NoError(t, os.WriteFile(good, encodePNG(t, solidImage(4, 4)), 0o600))
	bad := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "你好"},
		{Role: llm.RoleAssistant, Content: "你好，同学"},
		{Role: llm.RoleUser, Content: "看这张图"},
	}

	attached := AttachImage(history, good)
	require.NotNil(t, attached[2].Image)
	assert.Nil(t, attached[0].Image)
	assert.Nil(t, history[2].Image, "input slice is not modified")

	degraded := AttachImage(history, bad)
	assert.Nil(t, degraded[2].Image)
	assert.Equal(t, "看这张图\n[图片无法处理: bad.jpg]", degraded[2].Content)
}

func TestAttachImage_LatestUserTurn(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	require.NoError(t, os.WriteFile(good, encodePNG(t, solidImage(4, 4)), 0o600))

	tests := []struct {
		name    string
		history []llm.Message
		want    int
	}{
		{
			name: "replayed history keeps the opening turn text only",
			history: []llm.Message{
				{Role: llm.RoleUser, Content: "我想聊聊矛盾"},
				{Role: llm.RoleAssistant, Content: "你怎么理解矛盾？"},
				{Role: llm.RoleUser, Content: "请看这张图"},
			},
			want: 2,
		},
		{
			name: "trailing assistant turn is skipped",
			history: []llm.Message{
				{Role: llm.RoleUser, Content: "第一问"},
				{Role: llm.RoleUser, Content: "第二问"},
				{Role: llm.RoleAssistant, Content: "回答"},
			},
			want: 1,
		},
		{
			name:    "no user turn",
			history: []llm.Message{{Role: llm.RoleAssistant, Content: "回答"}},
			want:    -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := AttachImage(tt.history, good)
			for i, m := range out {
				if i == tt.want {
					assert.NotNil(t, m.Image, "message %d", i)
				} else {
					assert.Nil(t, m.Image, "message %d", i)
				}
			}
		})
	}
}

func TestTextOnly(t *testing.T) {
	out := TextOnly(imageRequest().Messages)
	for _, m := range out {
		assert.Nil(t, m.Image)
	}
	assert.Equal(t, "第二张", out[2].Content)
}

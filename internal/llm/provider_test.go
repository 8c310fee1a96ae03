package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name         string
	completeFunc func(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, request)
	}
	return &CompletionResponse{}, nil
}

func TestProviderInterface(t *testing.T) {
	var provider Provider = &MockProvider{name: "mock"}
	assert.Equal(t, "mock", provider.Name())
}

func TestMockProviderComplete(t *testing.T) {
	callCount := 0
	mock := &MockProvider{
		name: "test",
		completeFunc: func(_ context.Context, request *CompletionRequest) (*CompletionResponse, error) {
			callCount++
			require.Equal(t, "test-model", request.Model)
			return &CompletionResponse{Text: "ok", Usage: Usage{TotalTokens: 3}}, nil
		},
	}

	resp, err := mock.Complete(context.Background(), &CompletionRequest{Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestCompletionRequest_HasImage(t *testing.T) {
	req := &CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	assert.False(t, req.HasImage())

	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: "look", Image: &Image{MIMEType: "image/png"}})
	assert.True(t, req.HasImage())
}

func TestSupportedImageType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/PNG", true},
		{"image/gif", true},
		{"image/webp", true},
		{"image/bmp", false},
		{"application/pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, SupportedImageType(tt.mimeType))
		})
	}
}

func TestValidateImages(t *testing.T) {
	ok := &CompletionRequest{Messages: []Message{{Image: &Image{MIMEType: "image/jpeg"}}}}
	require.NoError(t, validateImages(ok))

	bad := &CompletionRequest{Messages: []Message{{Image: &Image{MIMEType: "image/tiff"}}}}
	err := validateImages(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedModality)
}

func TestGetIntentOutputSchema(t *testing.T) {
	schema := GetIntentOutputSchema()
	require.NotNil(t, schema)
	assert.Equal(t, "dialogue_intent", schema.Name)

	props, ok := schema.Schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "topic")
	assert.Contains(t, props, "character")
}

func TestProviderFactory_GetProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		factory      *ProviderFactory
		model        string
		providerName string
		wantName     string
		wantErr      bool
	}{
		{
			name:     "qwen model uses openai-compatible provider",
			factory:  NewProviderFactory("key", "https://dashscope.example/compatible-mode/v1", ""),
			model:    "qwen-max",
			wantName: "openai",
		},
		{
			name:     "gpt model uses openai",
			factory:  NewProviderFactory("key", "", ""),
			model:    "gpt-4o-mini",
			wantName: "openai",
		},
		{
			name:         "explicit openai",
			factory:      NewProviderFactory("key", "", ""),
			model:        "anything",
			providerName: "OpenAI",
			wantName:     "openai",
		},
		{
			name:    "missing openai key",
			factory: NewProviderFactory("", "", ""),
			model:   "qwen-max",
			wantErr: true,
		},
		{
			name:    "gemini model without gemini key",
			factory: NewProviderFactory("key", "", ""),
			model:   "gemini-2.5-flash",
			wantErr: true,
		},
		{
			name:         "unknown provider",
			factory:      NewProviderFactory("key", "", ""),
			providerName: "anthropic",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := tt.factory.GetProvider(ctx, tt.model, tt.providerName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, provider.Name())
		})
	}
}

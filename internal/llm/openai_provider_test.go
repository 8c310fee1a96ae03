package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key", "")
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.NotNil(t, provider.client)
}

func TestOpenAIProvider_BuildRequestParams(t *testing.T) {
	provider := NewOpenAIProvider("test-key", "https://example.invalid/v1")

	tests := []struct {
		name    string
		request *CompletionRequest
		checks  func(t *testing.T, request *CompletionRequest)
	}{
		{
			name: "system prompt and user message",
			request: &CompletionRequest{
				Model:        "qwen-max",
				SystemPrompt: "test system prompt",
				Messages:     []Message{{Role: RoleUser, Content: "test content"}},
				Temperature:  Float(0.7),
			},
			checks: func(t *testing.T, request *CompletionRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.Equal(t, "qwen-max", params.Model)
				require.Len(t, params.Messages, 2)
				require.NotNil(t, params.Messages[0].OfSystem)
				assert.Equal(t, "test system prompt", params.Messages[0].OfSystem.Content.OfString.Value)
				require.NotNil(t, params.Messages[1].OfUser)
				assert.Equal(t, "test content", params.Messages[1].OfUser.Content.OfString.Value)
				assert.InDelta(t, 0.7, params.Temperature.Value, 1e-9)
				assert.Nil(t, params.ResponseFormat.OfJSONObject)
			},
		},
		{
			name: "no system prompt",
			request: &CompletionRequest{
				Model:    "qwen-turbo",
				Messages: []Message{{Role: RoleUser, Content: "hi"}},
			},
			checks: func(t *testing.T, request *CompletionRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				require.Len(t, params.Messages, 1)
				assert.NotNil(t, params.Messages[0].OfUser)
			},
		},
		{
			name: "history keeps assistant turns in order",
			request: &CompletionRequest{
				Model: "qwen-max",
				Messages: []Message{
					{Role: RoleUser, Content: "q1"},
					{Role: RoleAssistant, Content: "a1"},
					{Role: RoleUser, Content: "q2"},
				},
			},
			checks: func(t *testing.T, request *CompletionRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				require.Len(t, params.Messages, 3)
				assert.NotNil(t, params.Messages[0].OfUser)
				require.NotNil(t, params.Messages[1].OfAssistant)
				assert.NotNil(t, params.Messages[2].OfUser)
			},
		},
		{
			name: "image becomes a data URL content part",
			request: &CompletionRequest{
				Model: "qwen-vl-max",
				Messages: []Message{{
					Role:    RoleUser,
					Content: "这张图讲的是什么？",
					Image:   &Image{Data: []byte("png-bytes"), MIMEType: "image/png"},
				}},
			},
			checks: func(t *testing.T, request *CompletionRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				require.Len(t, params.Messages, 1)
				parts := params.Messages[0].OfUser.Content.OfArrayOfContentParts
				require.Len(t, parts, 2)
				require.NotNil(t, parts[0].OfText)
				assert.Equal(t, "这张图讲的是什么？", parts[0].OfText.Text)
				require.NotNil(t, parts[1].OfImageURL)
				assert.True(t, strings.HasPrefix(parts[1].OfImageURL.ImageURL.URL, "data:image/png;base64,"))
			},
		},
		{
			name: "output schema requests a JSON object",
			request: &CompletionRequest{
				Model:        "qwen-turbo",
				Messages:     []Message{{Role: RoleUser, Content: "intent"}},
				OutputSchema: GetIntentOutputSchema(),
			},
			checks: func(t *testing.T, request *CompletionRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.NotNil(t, params.ResponseFormat.OfJSONObject)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checks(t, tt.request)
		})
	}
}

func TestDataURL(t *testing.T) {
	got := dataURL(&Image{Data: []byte("abc"), MIMEType: "image/jpeg"})
	assert.Equal(t, "data:image/jpeg;base64,YWJj", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

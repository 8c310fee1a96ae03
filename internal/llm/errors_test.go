package llm

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrQuota},
		{http.StatusPaymentRequired, ErrQuota},
		{http.StatusUnsupportedMediaType, ErrUnsupportedModality},
		{http.StatusInternalServerError, ErrTransport},
		{http.StatusBadGateway, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, kindForStatus(tt.status))
		})
	}
}

func TestWrapProviderError(t *testing.T) {
	t.Run("openai quota", func(t *testing.T) {
		sdkErr := &openai.Error{
			StatusCode: http.StatusTooManyRequests,
			Request:    httptest.NewRequest(http.MethodPost, "https://example.invalid/v1/chat/completions", nil),
			Response:   &http.Response{StatusCode: http.StatusTooManyRequests},
		}
		err := wrapProviderError("openai", sdkErr)
		assert.ErrorIs(t, err, ErrQuota)

		var target *openai.Error
		assert.True(t, errors.As(err, &target))
	})

	t.Run("gemini unsupported", func(t *testing.T) {
		err := wrapProviderError("gemini", genai.APIError{Code: http.StatusUnsupportedMediaType, Message: "bad mime"})
		assert.ErrorIs(t, err, ErrUnsupportedModality)
	})

	t.Run("plain network error", func(t *testing.T) {
		err := wrapProviderError("openai", errors.New("connection reset"))
		assert.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Error kinds reported by providers. Wrapped errors keep the SDK error in the chain.
var (
	ErrTransport           = errors.New("generation transport error")
	ErrQuota               = errors.New("generation quota exceeded")
	ErrMalformedResponse   = errors.New("malformed generation response")
	ErrUnsupportedModality = errors.New("unsupported modality")
)

func unsupportedImage(mimeType string) error {
	return fmt.Errorf("%w: image type %q", ErrUnsupportedModality, mimeType)
}

// kindForStatus maps an HTTP status from a provider to an error kind
func kindForStatus(status int) error {
	switch status {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return ErrQuota
	case http.StatusUnsupportedMediaType:
		return ErrUnsupportedModality
	default:
		return ErrTransport
	}
}

// wrapProviderError classifies an SDK error into one of the error kinds
func wrapProviderError(provider string, err error) error {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return fmt.Errorf("%s request failed (status %d): %w: %w",
			provider, openaiErr.StatusCode, kindForStatus(openaiErr.StatusCode), err)
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return fmt.Errorf("%s request failed (status %d): %w: %w",
			provider, geminiErr.Code, kindForStatus(geminiErr.Code), err)
	}

	return fmt.Errorf("%s request failed: %w: %w", provider, ErrTransport, err)
}

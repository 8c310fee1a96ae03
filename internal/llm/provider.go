package llm

import (
	"context"
	"strings"
)

// Provider defines the interface for text and vision generation backends
type Provider interface {
	// Complete runs one chat completion. Images attached to messages are sent as
	// multimodal parts; providers reject image types they cannot accept with
	// ErrUnsupportedModality.
	Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// Role of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is an encoded image attached to a message
type Image struct {
	Data     []byte
	MIMEType string
	Name     string
}

// Message is one chat turn
type Message struct {
	Role    Role
	Content string
	Image   *Image
}

// CompletionRequest contains all parameters needed for a completion
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Temperature  *float64
	// OutputSchema requests a JSON object response
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// Usage is the token accounting for one call
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CompletionResponse contains the result from the model
type CompletionResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// HasImage reports whether any message carries an image
func (r *CompletionRequest) HasImage() bool {
	for _, m := range r.Messages {
		if m.Image != nil {
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for optional request fields
func Float(v float64) *float64 {
	return &v
}

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// SupportedImageType reports whether providers accept the MIME type
func SupportedImageType(mimeType string) bool {
	return supportedImageTypes[strings.ToLower(mimeType)]
}

func validateImages(request *CompletionRequest) error {
	for _, m := range request.Messages {
		if m.Image != nil && !SupportedImageType(m.Image.MIMEType) {
			return unsupportedImage(m.Image.MIMEType)
		}
	}
	return nil
}

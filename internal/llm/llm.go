package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers for tailoring requests.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request is a single-prompt completion. Model is chosen per call so a
// settings change takes effect on the next generation.
type Request struct {
	Model  string
	Prompt string
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Usage reports token counts when the provider returns them.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the raw model output.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is used when no API key is set.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (Response, error) {
	_ = ctx
	_ = req
	return Response{}, ErrNotConfigured
}

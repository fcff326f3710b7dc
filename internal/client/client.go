package client

import (
	"context"

	"github.com/austiecodes/curator/internal/types"
)

// Message is a provider-specific chat message.
type Message interface {
	GetRole() string
	GetContent() any
}

// ChatRequest is a provider-specific chat request.
type ChatRequest interface {
	GetModel() types.Model
}

// ChatResponse is a provider-specific chat response.
type ChatResponse interface {
	GetContent() any
}

// CompletionRequest is a single-turn generation request.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	// JSON asks the provider to constrain output to a JSON object where it
	// supports doing so. Callers still validate the text they get back.
	JSON bool
}

// CompletionClient turns a prompt into text. Every provider implements it so
// pipeline code never sees provider request types.
type CompletionClient interface {
	Complete(ctx context.Context, model types.Model, req CompletionRequest) (string, error)
}

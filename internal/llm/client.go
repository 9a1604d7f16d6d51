package llm

import (
	"context"
)

// Client defines the interface for LLM providers.
type Client interface {
	Chat(ctx context.Context, req Request) (Response, error)
}

// Request is a single-turn conversation: a system prompt and one user message.
type Request struct {
	System string
	Prompt string
}

// Response carries the model's reply. Content may be empty when the provider
// returned no choices.
type Response struct {
	Content string
	Model   string
}

package ports

import (
	"context"

	"github.com/celanai/celan/internal/core/domain"
)

// CompletionRequest is a single non-streaming chat completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []domain.ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionClient talks to the hosted language model.
type CompletionClient interface {
	// Complete returns the text of the first choice, which may be empty.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

package domain

import "context"

// GenerationRequest is a chat completion request sent to the language model.
type GenerationRequest struct {
	Messages  []ChatMessage
	MaxTokens int
}

// TextStream yields incremental text fragments of a model answer.
// Next returns io.EOF once the answer is complete.
type TextStream interface {
	Next() (string, error)
	Close() error
}

// Generator opens a streaming chat completion.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (TextStream, error)
}

package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/domain"
	"github.com/uiaudit/lenny/internal/metrics"
)

// ChatConfig holds the chat completion settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Client      *openai.Client // optional shared client
	Model       string
	Temperature float32 // zero leaves the provider default
	Logger      *zap.Logger
}

// ChatGenerator streams chat completions. Implements domain.Generator.
type ChatGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewChatGenerator creates a streaming chat completion client.
func NewChatGenerator(cfg *ChatConfig) *ChatGenerator {
	client := cfg.Client
	if client == nil {
		client = NewClient(ClientConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	}
	return &ChatGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Generate opens a streaming completion. The stream is bound to ctx.
func (g *ChatGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.TextStream, error) {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	creq := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: g.temperature,
		Stream:      true,
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, parseAPIError("chat", err, domain.ErrGenerationFailed)
	}

	return &textStream{stream: stream, model: g.model, start: time.Now(), logger: g.logger}, nil
}

// textStream adapts a go-openai stream to domain.TextStream, dropping empty deltas.
type textStream struct {
	stream *openai.ChatCompletionStream
	model  string
	start  time.Time
	logger *zap.Logger
	done   bool
}

func (s *textStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			metrics.ChatGenerationDuration.WithLabelValues(s.model).Observe(time.Since(s.start).Seconds())
			return "", io.EOF
		}
		if err != nil {
			s.done = true
			return "", parseAPIError("chat", err, domain.ErrGenerationFailed)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
	}
}

func (s *textStream) Close() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("close chat stream: %w", err)
	}
	return nil
}

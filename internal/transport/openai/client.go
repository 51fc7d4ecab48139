package openai

import (
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig holds connection settings shared by the embedder and the chat generator.
type ClientConfig struct {
	APIKey  string
	BaseURL string // empty keeps the public OpenAI endpoint
	Timeout time.Duration
}

// NewClient creates a go-openai client. A zero Timeout leaves deadlines to the request context.
func NewClient(cfg ClientConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

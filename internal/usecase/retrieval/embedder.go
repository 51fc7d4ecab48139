package retrieval

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/domain"
)

// Query embedding defaults.
const (
	DefaultMaxInputChars = 30000
	DefaultEmbedTimeout  = 15 * time.Second
)

// EmbedOptions tune a QueryEmbedder.
type EmbedOptions struct {
	MaxInputChars int
	Timeout       time.Duration
}

// QueryEmbedder normalizes a query and embeds it, degrading to "no vector" on any failure.
type QueryEmbedder struct {
	inner    domain.Embedder
	maxChars int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewQueryEmbedder wraps an embedder. Zero options take the package defaults.
func NewQueryEmbedder(inner domain.Embedder, opts EmbedOptions, logger *zap.Logger) *QueryEmbedder {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultEmbedTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryEmbedder{
		inner:    inner,
		maxChars: opts.MaxInputChars,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Embed returns the query vector. Blank input and provider failures yield ok=false.
// Errors are logged, never returned.
func (e *QueryEmbedder) Embed(ctx context.Context, text string) ([]float32, bool) {
	if e.inner == nil {
		return nil, false
	}
	normalized := Normalize(text, e.maxChars)
	if normalized == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.inner.Embed(ctx, normalized)
	if err != nil {
		e.logger.Warn("Query embedding failed",
			zap.Int("query_chars", len([]rune(normalized))),
			zap.Error(err),
		)
		return nil, false
	}
	if len(res.Embedding) == 0 {
		e.logger.Warn("Query embedding returned an empty vector")
		return nil, false
	}
	return res.Embedding, true
}

// Normalize replaces newlines with spaces, trims surrounding whitespace and
// truncates to maxChars characters.
func Normalize(text string, maxChars int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)
	return truncateRunes(text, maxChars)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

package chat

import (
	"context"

	"github.com/uiaudit/lenny/internal/domain"
)

// Searcher finds grounding content for a question in both corpora.
type Searcher interface {
	SearchAll(ctx context.Context, query string) (app, kb []domain.SearchResult)
}

// Credentials reports which required credentials are absent.
type Credentials interface {
	Missing() []string
}

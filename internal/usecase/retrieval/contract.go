package retrieval

import (
	"context"

	"github.com/uiaudit/lenny/internal/domain"
)

// Repository runs KNN queries against the two content indexes.
type Repository interface {
	SearchApp(
		ctx context.Context, vector []float32, categories []domain.Category, k int,
	) ([]domain.SearchResult, error)
	SearchKB(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)
}

// VectorEmbedder turns a query into a vector. ok is false when no vector could be produced.
type VectorEmbedder interface {
	Embed(ctx context.Context, text string) (vector []float32, ok bool)
}

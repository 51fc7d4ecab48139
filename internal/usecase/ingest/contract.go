package ingest

import (
	"context"

	"github.com/uiaudit/lenny/internal/domain"
	"github.com/uiaudit/lenny/internal/repository/content"
)

// Repository creates the content indexes and stores embedded records.
type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Reset(ctx context.Context, corpus domain.Corpus) error
	Upsert(ctx context.Context, corpus domain.Corpus, items []content.Item) error
}

// Embedder vectorizes texts in one call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

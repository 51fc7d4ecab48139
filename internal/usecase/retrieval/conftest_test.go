package retrieval

import (
	"context"
	"sync"

	"github.com/uiaudit/lenny/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	mu     sync.Mutex
	result domain.EmbeddingResult
	err    error
	calls  int
	texts  []string
	ctxErr error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts = append(m.texts, text)
	if _, ok := ctx.Deadline(); !ok {
		m.ctxErr = context.DeadlineExceeded
	}
	return m.result, m.err
}

type mockVectorEmbedder struct {
	mu     sync.Mutex
	vector []float32
	ok     bool
	calls  int
}

func (m *mockVectorEmbedder) Embed(_ context.Context, _ string) ([]float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.vector, m.ok
}

type mockRepository struct {
	mu         sync.Mutex
	app        []domain.SearchResult
	appErr     error
	kb         []domain.SearchResult
	kbErr      error
	appCalls   int
	kbCalls    int
	categories []domain.Category
	appK       int
	kbK        int
}

func (m *mockRepository) SearchApp(
	_ context.Context, _ []float32, categories []domain.Category, k int,
) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appCalls++
	m.categories = categories
	m.appK = k
	return m.app, m.appErr
}

func (m *mockRepository) SearchKB(_ context.Context, _ []float32, k int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kbCalls++
	m.kbK = k
	return m.kb, m.kbErr
}

func hit(id string, sim float64) domain.SearchResult {
	return domain.SearchResult{
		Record:     domain.Record{ID: id, Category: domain.CategoryAction, Title: id},
		Similarity: sim,
	}
}

func kbHit(id string, sim float64) domain.SearchResult {
	return domain.SearchResult{
		Record:     domain.Record{ID: id, ChunkID: id + "-c", Category: domain.CategoryArticle, Title: id},
		Similarity: sim,
	}
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/domain"
	"github.com/uiaudit/lenny/internal/repository/content"
	"github.com/uiaudit/lenny/internal/usecase/retrieval"
)

// Ingest defaults.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// ErrNoText marks a record with nothing to embed.
var ErrNoText = errors.New("record has no text to embed")

// Options tune ingestion.
type Options struct {
	BatchSize int
	Workers   int
}

// ItemError reports a record that was not stored.
type ItemError struct {
	ID  string
	Err error
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Total   int
	Indexed int
	Failed  []ItemError
}

// Service embeds content records in batches and upserts them into the content indexes.
type Service struct {
	repo      Repository
	embed     Embedder
	pool      *ants.Pool
	batchSize int
	logger    *zap.Logger
}

// New creates an ingest service with its worker pool. Call Release when done.
func New(repo Repository, embed Embedder, opts Options, logger *zap.Logger) (*Service, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Service{
		repo:      repo,
		embed:     embed,
		pool:      pool,
		batchSize: opts.BatchSize,
		logger:    logger,
	}, nil
}

// Release stops the worker pool.
func (s *Service) Release() {
	s.pool.Release()
}

// Reset deletes the corpus index and every record in it. The next Ingest recreates the index.
func (s *Service) Reset(ctx context.Context, corpus domain.Corpus) error {
	if err := s.repo.Reset(ctx, corpus); err != nil {
		return fmt.Errorf("reset %s: %w", corpus, err)
	}
	s.logger.Info("Content index reset", zap.String("corpus", string(corpus)))
	return nil
}

// Ingest stores records into corpus. Records without an id get a random one.
// Per-record failures are reported in the summary; the error is reserved for
// failures that stop the whole run.
func (s *Service) Ingest(ctx context.Context, corpus domain.Corpus, records []domain.Record) (Summary, error) {
	if !corpus.IsValid() {
		return Summary{}, fmt.Errorf("unknown corpus %q", corpus)
	}
	if err := s.repo.EnsureIndexes(ctx); err != nil {
		return Summary{}, fmt.Errorf("ensure indexes: %w", err)
	}

	summary := Summary{Total: len(records)}
	var mu sync.Mutex
	fail := func(items []content.Item, err error) {
		mu.Lock()
		defer mu.Unlock()
		for _, it := range items {
			summary.Failed = append(summary.Failed, ItemError{ID: it.Record.ID, Err: err})
		}
	}

	valid := make([]content.Item, 0, len(records))
	for _, rec := range records {
		prepared, err := prepare(corpus, rec)
		if err != nil {
			fail([]content.Item{{Record: prepared}}, err)
			continue
		}
		valid = append(valid, content.Item{Record: prepared})
	}

	var wg sync.WaitGroup
	for batch := range slices.Chunk(valid, s.batchSize) {
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.storeBatch(ctx, corpus, batch); err != nil {
				s.logger.Warn("Ingest batch failed",
					zap.String("corpus", string(corpus)),
					zap.Int("batch_size", len(batch)),
					zap.Error(err),
				)
				fail(batch, err)
				return
			}
			mu.Lock()
			summary.Indexed += len(batch)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(batch, fmt.Errorf("submit batch: %w", submitErr))
		}
	}
	wg.Wait()

	s.logger.Info("Ingest completed",
		zap.String("corpus", string(corpus)),
		zap.Int("total", summary.Total),
		zap.Int("indexed", summary.Indexed),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, ctx.Err()
}

// storeBatch embeds one batch and writes it in a single upsert.
func (s *Service) storeBatch(ctx context.Context, corpus domain.Corpus, batch []content.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = EmbeddingText(corpus, batch[i].Record)
	}

	res, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(res.Embeddings) != len(batch) {
		return fmt.Errorf("embed: expected %d vectors, got %d", len(batch), len(res.Embeddings))
	}

	items := make([]content.Item, len(batch))
	for i := range batch {
		items[i] = content.Item{Record: batch[i].Record, Vector: res.Embeddings[i]}
	}
	if err := s.repo.Upsert(ctx, corpus, items); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// prepare validates a record for corpus and fills its id and category.
func prepare(corpus domain.Corpus, rec domain.Record) (domain.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if corpus == domain.CorpusKB {
		rec.Category = domain.CategoryArticle
	} else if !slices.Contains(domain.AppCategories(), rec.Category) {
		return rec, fmt.Errorf("record %s: unsupported content_type %q", rec.ID, rec.Category)
	}
	if EmbeddingText(corpus, rec) == "" {
		return rec, fmt.Errorf("record %s: %w", rec.ID, ErrNoText)
	}
	return rec, nil
}

// EmbeddingText is the text a record is indexed under: its title followed by
// the description (app content) or body (KB chunks), normalized like queries.
func EmbeddingText(corpus domain.Corpus, rec domain.Record) string {
	body := rec.Description
	if corpus == domain.CorpusKB {
		body = rec.Content
	}
	var parts []string
	for _, p := range []string{rec.Title, body} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return retrieval.Normalize(strings.Join(parts, " "), retrieval.DefaultMaxInputChars)
}

package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uiaudit/lenny/internal/domain"
	"github.com/uiaudit/lenny/internal/metrics"
)

// Search defaults.
const (
	DefaultAppMatchCount     = 25
	DefaultAppMatchThreshold = 0.20
	DefaultKBMatchCount      = 3
	DefaultKBMatchThreshold  = 0.50
	DefaultSearchTimeout     = 5 * time.Second
)

// AppOptions parameterize an app-UI content search.
type AppOptions struct {
	ContentTypes   []domain.Category
	MatchCount     int
	MatchThreshold float64
}

// DefaultAppOptions returns the app search parameters used for chat answers.
func DefaultAppOptions() AppOptions {
	return AppOptions{
		ContentTypes:   domain.AppCategories(),
		MatchCount:     DefaultAppMatchCount,
		MatchThreshold: DefaultAppMatchThreshold,
	}
}

// KBOptions parameterize a knowledge-base search.
type KBOptions struct {
	MatchCount     int
	MatchThreshold float64
}

// DefaultKBOptions returns the KB search parameters used for chat answers.
func DefaultKBOptions() KBOptions {
	return KBOptions{
		MatchCount:     DefaultKBMatchCount,
		MatchThreshold: DefaultKBMatchThreshold,
	}
}

// Config holds the options SearchAll uses for both corpora.
type Config struct {
	App           AppOptions
	KB            KBOptions
	SearchTimeout time.Duration
}

// Service searches the app-UI and KB indexes for a query.
// Every failure degrades to an empty result list.
type Service struct {
	embed   VectorEmbedder
	repo    Repository
	app     AppOptions
	kb      KBOptions
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a retrieval service. repo may be nil when no store is configured.
func New(embed VectorEmbedder, repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.App.MatchCount <= 0 {
		cfg.App.MatchCount = DefaultAppMatchCount
	}
	if len(cfg.App.ContentTypes) == 0 {
		cfg.App.ContentTypes = domain.AppCategories()
	}
	if cfg.KB.MatchCount <= 0 {
		cfg.KB.MatchCount = DefaultKBMatchCount
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:   embed,
		repo:    repo,
		app:     cfg.App,
		kb:      cfg.KB,
		timeout: cfg.SearchTimeout,
		logger:  logger,
	}
}

// SearchAppContent embeds query and returns app-UI records at or above the threshold.
func (s *Service) SearchAppContent(ctx context.Context, query string, opts AppOptions) []domain.SearchResult {
	vector, ok := s.embed.Embed(ctx, query)
	if !ok {
		return nil
	}
	return s.searchApp(ctx, vector, opts)
}

// SearchKBContent embeds query and returns KB chunks at or above the threshold.
func (s *Service) SearchKBContent(ctx context.Context, query string, opts KBOptions) []domain.SearchResult {
	vector, ok := s.embed.Embed(ctx, query)
	if !ok {
		return nil
	}
	return s.searchKB(ctx, vector, opts)
}

// SearchAll embeds query once and searches both corpora concurrently with the configured options.
func (s *Service) SearchAll(ctx context.Context, query string) (app, kb []domain.SearchResult) {
	vector, ok := s.embed.Embed(ctx, query)
	if !ok {
		return nil, nil
	}

	var g errgroup.Group
	g.Go(func() error {
		app = s.searchApp(ctx, vector, s.app)
		return nil
	})
	g.Go(func() error {
		kb = s.searchKB(ctx, vector, s.kb)
		return nil
	})
	_ = g.Wait()

	return app, kb
}

func (s *Service) searchApp(ctx context.Context, vector []float32, opts AppOptions) []domain.SearchResult {
	if s.repo == nil {
		s.logger.Warn("App content search skipped", zap.Error(domain.ErrStoreUnavailable))
		return nil
	}
	if opts.MatchCount <= 0 {
		return nil
	}
	categories := opts.ContentTypes
	if len(categories) == 0 {
		categories = domain.AppCategories()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.repo.SearchApp(ctx, vector, categories, opts.MatchCount)
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues(string(domain.CorpusApp)).Inc()
		s.logger.Warn("App content search failed", zap.Error(err))
		return nil
	}
	return s.keep(domain.CorpusApp, results, opts.MatchThreshold, opts.MatchCount)
}

func (s *Service) searchKB(ctx context.Context, vector []float32, opts KBOptions) []domain.SearchResult {
	if s.repo == nil {
		s.logger.Warn("KB content search skipped", zap.Error(domain.ErrStoreUnavailable))
		return nil
	}
	if opts.MatchCount <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.repo.SearchKB(ctx, vector, opts.MatchCount)
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues(string(domain.CorpusKB)).Inc()
		s.logger.Warn("KB content search failed", zap.Error(err))
		return nil
	}
	return s.keep(domain.CorpusKB, results, opts.MatchThreshold, opts.MatchCount)
}

// keep applies the similarity threshold and the result cap.
func (s *Service) keep(
	corpus domain.Corpus, results []domain.SearchResult, threshold float64, limit int,
) []domain.SearchResult {
	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	metrics.SearchResultsTotal.WithLabelValues(string(corpus)).Add(float64(len(kept)))
	return kept
}

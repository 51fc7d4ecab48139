package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/uiaudit/lenny/internal/db"
	"github.com/uiaudit/lenny/internal/domain"
)

// store is the consumer interface for content indexes (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config describes key layout and vector schema.
type Config struct {
	KeyPrefix string // e.g. "lenny:"
	VectorDim int
	HNSW      HNSWConfig
}

// Item is a record paired with its embedding, ready to be stored.
type Item struct {
	Record domain.Record
	Vector []float32
}

// Repo stores and searches app-UI content and knowledge-base chunks.
type Repo struct {
	store store
	cfg   Config
}

// New creates a content repository.
func New(s store, cfg Config) *Repo {
	if cfg.HNSW.M <= 0 {
		cfg.HNSW.M = 16
	}
	if cfg.HNSW.EFConstruct <= 0 {
		cfg.HNSW.EFConstruct = 200
	}
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndexes creates both FT indexes if absent.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, c := range []domain.Corpus{domain.CorpusApp, domain.CorpusKB} {
		name := r.indexName(c)
		exists, err := r.store.IndexExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", name, err)
		}
		if exists {
			continue
		}
		def, err := r.indexDefinition(c)
		if err != nil {
			return fmt.Errorf("build index %s: %w", name, err)
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}

// Reset drops the corpus index together with its records.
// A missing index is not an error; EnsureIndexes recreates it.
func (r *Repo) Reset(ctx context.Context, corpus domain.Corpus) error {
	if !corpus.IsValid() {
		return fmt.Errorf("unknown corpus %q", corpus)
	}
	name := r.indexName(corpus)
	if err := r.store.DropIndex(ctx, name, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

// SearchApp runs KNN over app-UI content restricted to the given categories.
// Results are ordered by descending similarity.
func (r *Repo) SearchApp(
	ctx context.Context, vector []float32, categories []domain.Category, k int,
) ([]domain.SearchResult, error) {
	values := make([]string, len(categories))
	for i, c := range categories {
		values[i] = string(c)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(domain.CorpusApp),
		VectorField:  fieldVector,
		Filter:       db.TagFilter{Field: fieldCategory, Values: values},
		Vector:       vector,
		K:            k,
		ReturnFields: appReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search app content: %w", err)
	}

	return r.toResults(sr, domain.CorpusApp, appFromHash), nil
}

// SearchKB runs KNN over knowledge-base chunks.
func (r *Repo) SearchKB(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(domain.CorpusKB),
		VectorField:  fieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: kbReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search kb content: %w", err)
	}

	return r.toResults(sr, domain.CorpusKB, kbFromHash), nil
}

// Upsert writes records of one corpus in a single pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, corpus domain.Corpus, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	if !corpus.IsValid() {
		return fmt.Errorf("unknown corpus %q", corpus)
	}

	batch := make([]db.HashSetItem, len(items))
	for i := range items {
		rec := &items[i].Record
		if rec.ID == "" {
			return fmt.Errorf("item %d: id is required", i)
		}
		if len(items[i].Vector) != r.cfg.VectorDim {
			return fmt.Errorf("item %s: vector dim %d, want %d", rec.ID, len(items[i].Vector), r.cfg.VectorDim)
		}
		var fields map[string]string
		if corpus == domain.CorpusApp {
			fields = appToHash(rec, items[i].Vector)
		} else {
			fields = kbToHash(rec, items[i].Vector)
		}
		batch[i] = db.HashSetItem{Key: r.recordKey(corpus, rec.ID), Fields: fields}
	}

	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("upsert %s content: %w", corpus, err)
	}
	return nil
}

func (r *Repo) toResults(
	sr *db.SearchResult, corpus domain.Corpus, parse func(string, map[string]string) domain.Record,
) []domain.SearchResult {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := r.keyPrefix(corpus)
	out := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := strings.TrimPrefix(e.Key, prefix)
		out = append(out, domain.SearchResult{Record: parse(id, e.Fields), Similarity: e.Score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

func (r *Repo) indexDefinition(c domain.Corpus) (*db.IndexDefinition, error) {
	b := db.NewIndex(r.indexName(c)).Prefix(r.keyPrefix(c))
	if c == domain.CorpusApp {
		b = b.Tag(fieldCategory)
	}
	return b.VectorHNSW(fieldVector, r.cfg.VectorDim, db.DistanceCosine, r.cfg.HNSW.M, r.cfg.HNSW.EFConstruct).Build()
}

func (r *Repo) keyPrefix(c domain.Corpus) string {
	return r.cfg.KeyPrefix + string(c) + ":"
}

func (r *Repo) indexName(c domain.Corpus) string {
	return r.keyPrefix(c) + "idx"
}

func (r *Repo) recordKey(c domain.Corpus, id string) string {
	return r.keyPrefix(c) + id
}

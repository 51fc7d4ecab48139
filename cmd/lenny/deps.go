package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/config"
	dbRedis "github.com/uiaudit/lenny/internal/db/redis"
	"github.com/uiaudit/lenny/internal/domain"
	logpkg "github.com/uiaudit/lenny/internal/logger"
	"github.com/uiaudit/lenny/internal/metrics"
	"github.com/uiaudit/lenny/internal/repository/content"
	"github.com/uiaudit/lenny/internal/repository/embcache"
	openaiTransport "github.com/uiaudit/lenny/internal/transport/openai"
	embeddinguc "github.com/uiaudit/lenny/internal/usecase/embedding"
)

// app holds the process-wide dependencies built once at startup.
type app struct {
	cfg    config.Config
	env    string
	logger *zap.Logger
	store  *dbRedis.Store // nil when no store address is configured
	client *openai.Client
}

// newApp loads configuration, builds the logger and connects to the store.
func newApp(ctx context.Context) (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, env: env, logger: logger}

	creds := cfg.Credentials()
	logger.Info("Configuration loaded",
		zap.String("env", env),
		zap.Bool("openai_api_key_set", creds.OpenAIKey),
		zap.Bool("store_addrs_set", creds.StoreAddrs),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
	)

	if creds.StoreAddrs {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Username: cfg.Store.Username,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create store: %w", err)
		}
		timeout := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("store not ready: %w", err)
		}
		a.store = store
		logger.Info("Connected to content store")
	}

	a.client = openaiTransport.NewClient(openaiTransport.ClientConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
	})

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()

	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// contentRepo returns the content repository, or nil without a store.
func (a *app) contentRepo() *content.Repo {
	if a.store == nil {
		return nil
	}
	return content.New(a.store, content.Config{
		KeyPrefix: a.cfg.Store.KeyPrefix,
		VectorDim: a.cfg.OpenAI.Dimensions,
		HNSW: content.HNSWConfig{
			M:           a.cfg.Store.HNSWM,
			EFConstruct: a.cfg.Store.HNSWEFConstruct,
		},
	})
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func (a *app) buildEmbedder() (*openaiTransport.Embedder, *embeddinguc.InstrumentedEmbedder) {
	const provider = "openai"

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		Client:     a.client,
		Model:      a.cfg.OpenAI.EmbeddingModel,
		Dimensions: a.cfg.OpenAI.Dimensions,
		Provider:   provider,
		Logger:     a.logger,
	})

	var embedder domain.Embedder = base
	if a.store != nil {
		embedder = embcache.New(base, a.store, embcache.Options{
			KeyPrefix: a.cfg.Store.KeyPrefix + "emb_cache:",
			Model:     a.cfg.OpenAI.EmbeddingModel,
			TTL:       time.Duration(a.cfg.Store.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, a.logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Options{
		Provider:     provider,
		Model:        a.cfg.OpenAI.EmbeddingModel,
		Dimensions:   a.cfg.OpenAI.Dimensions,
		MaxBatchSize: a.cfg.Ingest.MaxAPIBatchSize,
	}, a.logger)

	return base, instrumented
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/config"
	"github.com/uiaudit/lenny/internal/domain"
	chiTransport "github.com/uiaudit/lenny/internal/transport/chi"
	openaiTransport "github.com/uiaudit/lenny/internal/transport/openai"
	chatuc "github.com/uiaudit/lenny/internal/usecase/chat"
	healthuc "github.com/uiaudit/lenny/internal/usecase/health"
	"github.com/uiaudit/lenny/internal/usecase/retrieval"
	"github.com/uiaudit/lenny/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	logger := a.logger

	logger.Info("Starting Lenny chat API",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	base, embedder := a.buildEmbedder()
	queryEmbedder := retrieval.NewQueryEmbedder(embedder, retrieval.EmbedOptions{
		MaxInputChars: cfg.Retrieval.MaxInputChars,
		Timeout:       time.Duration(cfg.Retrieval.EmbedTimeoutSec) * time.Second,
	}, logger)

	// Pass nil interfaces (not typed nil pointers!) when the store is not configured.
	var repo retrieval.Repository
	var pinger healthuc.DBPinger
	if a.store != nil {
		contentRepo := a.contentRepo()
		if err := contentRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		repo = contentRepo
		pinger = a.store
	}

	searchSvc := retrieval.New(queryEmbedder, repo, retrievalConfig(cfg), logger)

	generator := openaiTransport.NewChatGenerator(&openaiTransport.ChatConfig{
		Client:      a.client,
		Model:       cfg.OpenAI.ChatModel,
		Temperature: temperature(cfg.OpenAI.Temperature),
		Logger:      logger,
	})

	creds := cfg.Credentials()
	chatSvc := chatuc.New(searchSvc, generator, creds, chatConfig(cfg))
	healthSvc := healthuc.New(pinger, newEmbeddingHealthChecker(base), creds)

	server := chiTransport.NewServer(chatSvc, healthSvc, creds, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func retrievalConfig(cfg config.Config) retrieval.Config {
	types := make([]domain.Category, len(cfg.Retrieval.AppContentTypes))
	for i, t := range cfg.Retrieval.AppContentTypes {
		types[i] = domain.Category(t)
	}
	return retrieval.Config{
		App: retrieval.AppOptions{
			ContentTypes:   types,
			MatchCount:     cfg.Retrieval.AppMatchCount,
			MatchThreshold: *cfg.Retrieval.AppMatchThreshold,
		},
		KB: retrieval.KBOptions{
			MatchCount:     cfg.Retrieval.KBMatchCount,
			MatchThreshold: *cfg.Retrieval.KBMatchThreshold,
		},
		SearchTimeout: time.Duration(cfg.Retrieval.SearchTimeoutSec) * time.Second,
	}
}

func chatConfig(cfg config.Config) chatuc.Config {
	limits := chatuc.DefaultContextLimits()
	limits.Actions = cfg.Chat.Context.Actions
	limits.Components = cfg.Chat.Context.Components
	limits.Pages = cfg.Chat.Context.Pages
	limits.KB = cfg.Chat.Context.KB

	return chatuc.Config{
		MaxTokens:         cfg.Chat.MaxTokens,
		HistoryTurns:      cfg.Chat.HistoryTurns,
		GenerationTimeout: time.Duration(cfg.Chat.GenerationTimeoutSec) * time.Second,
		Limits:            limits,
	}
}

func temperature(t *float32) float32 {
	if t == nil {
		return 0
	}
	return *t
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

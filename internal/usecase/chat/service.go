package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/domain"
	"github.com/uiaudit/lenny/internal/logger"
	"github.com/uiaudit/lenny/internal/metrics"
)

// Generation defaults.
const (
	DefaultMaxTokens         = 1500
	DefaultGenerationTimeout = 120 * time.Second
)

// internalErrorMessage is sent when the producer fails unexpectedly.
const internalErrorMessage = "Internal server error"

// Stream outcomes recorded in metrics.
const (
	outcomeCompleted = "completed"
	outcomeErrored   = "errored"
	outcomeCanceled  = "canceled"
)

// Request is one chat question with its prior conversation.
type Request struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
}

// Config tunes the orchestrator. Zero values take the package defaults.
type Config struct {
	SystemPrompt      string
	MaxTokens         int
	HistoryTurns      int
	GenerationTimeout time.Duration
	Limits            ContextLimits
}

// Service answers chat requests as a stream of events.
type Service struct {
	search  Searcher
	gen     domain.Generator
	creds   Credentials
	prompt  string
	tokens  int
	turns   int
	timeout time.Duration
	limits  ContextLimits
}

// New creates a chat service. creds may be nil when every credential is known to be present.
func New(search Searcher, gen domain.Generator, creds Credentials, cfg Config) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultHistoryTurns
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	if cfg.Limits == (ContextLimits{}) {
		cfg.Limits = DefaultContextLimits()
	}
	return &Service{
		search:  search,
		gen:     gen,
		creds:   creds,
		prompt:  cfg.SystemPrompt,
		tokens:  cfg.MaxTokens,
		turns:   cfg.HistoryTurns,
		timeout: cfg.GenerationTimeout,
		limits:  cfg.Limits,
	}
}

// CheckConfig returns a MissingCredentialsError when the service cannot answer.
// It must be called before a stream is opened.
func (s *Service) CheckConfig() error {
	if s.creds == nil {
		return nil
	}
	if missing := s.creds.Missing(); len(missing) > 0 {
		return domain.NewMissingCredentials(missing...)
	}
	return nil
}

// Stream answers req. Events arrive in the order sources?, content*, error?, done.
// The channel is closed after done, or early when ctx is canceled.
func (s *Service) Stream(ctx context.Context, req Request) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		e := emitter{ctx: ctx, events: events}
		defer s.recoverPanic(ctx, e)
		s.run(ctx, req, e)
	}()
	return events
}

// StreamError answers with a single error followed by done, for requests
// rejected before reaching the orchestrator.
func (s *Service) StreamError(ctx context.Context, err error) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		e := emitter{ctx: ctx, events: events}
		defer s.recoverPanic(ctx, e)
		e.fail(err.Error())
		s.finish(ctx, e, outcomeErrored)
	}()
	return events
}

func (s *Service) run(ctx context.Context, req Request, e emitter) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.Message) == "" {
		e.fail(domain.ErrEmptyMessage.Error())
		s.finish(ctx, e, outcomeErrored)
		return
	}

	app, kb := s.search.SearchAll(ctx, req.Message)
	sources := FormatSources(app, kb)
	log.Debug("Chat context retrieved",
		zap.Int("app_results", len(app)),
		zap.Int("kb_results", len(kb)),
		zap.Int("sources", len(sources)),
	)
	if !e.send(domain.SourcesEvent(sources)) {
		s.finish(ctx, e, outcomeCanceled)
		return
	}
	metrics.ChatSourcesPerAnswer.Observe(float64(len(sources)))

	msgs := BuildMessages(s.prompt, s.limits.Build(app, kb), req.History, req.Message, s.turns)

	outcome := s.generate(ctx, e, msgs)
	s.finish(ctx, e, outcome)
}

// generate streams model fragments as content events and reports the outcome.
func (s *Service) generate(ctx context.Context, e emitter, msgs []domain.ChatMessage) string {
	log := logger.FromContext(ctx)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream, err := s.gen.Generate(genCtx, domain.GenerationRequest{Messages: msgs, MaxTokens: s.tokens})
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCanceled
		}
		log.Error("Chat generation failed to start", zap.Error(err))
		e.fail(err.Error())
		return outcomeErrored
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			log.Debug("Chat stream close failed", zap.Error(cerr))
		}
	}()

	for {
		text, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return outcomeCompleted
		}
		if err != nil {
			if ctx.Err() != nil {
				return outcomeCanceled
			}
			log.Error("Chat generation failed", zap.Error(err))
			e.fail(err.Error())
			return outcomeErrored
		}
		if text == "" {
			continue
		}
		if !e.send(domain.ContentEvent(text)) {
			return outcomeCanceled
		}
	}
}

// finish sends done unless the consumer is gone and records the outcome.
func (s *Service) finish(ctx context.Context, e emitter, outcome string) {
	if outcome != outcomeCanceled && !e.send(domain.DoneEvent()) {
		outcome = outcomeCanceled
	}
	metrics.ChatStreamsTotal.WithLabelValues(outcome).Inc()
	if outcome == outcomeCanceled {
		logger.FromContext(ctx).Debug("Chat stream abandoned by client")
	}
}

// recoverPanic turns a panic in the producer into an error event followed by done.
func (s *Service) recoverPanic(ctx context.Context, e emitter) {
	rvr := recover()
	if rvr == nil {
		return
	}
	logger.FromContext(ctx).Error("Chat stream panic recovered",
		zap.Any("panic", rvr),
		zap.Stack("stacktrace"),
	)
	e.fail(internalErrorMessage)
	s.finish(ctx, e, outcomeErrored)
}

// emitter sends events without blocking on a consumer that has gone away.
type emitter struct {
	ctx    context.Context
	events chan<- domain.StreamEvent
}

func (e emitter) send(ev domain.StreamEvent) bool {
	select {
	case e.events <- ev:
		metrics.ChatEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e emitter) fail(message string) {
	e.send(domain.ErrorEvent(message))
}

package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/domain"
	"github.com/uiaudit/lenny/internal/logger"
	chatuc "github.com/uiaudit/lenny/internal/usecase/chat"
	healthuc "github.com/uiaudit/lenny/internal/usecase/health"
)

// maxChatBodyBytes limits the chat request body.
const maxChatBodyBytes = 1 << 20

// serviceName is reported by the chat env check.
const serviceName = "Lenny Chat API"

// Error codes returned in JSON error bodies.
const (
	codeServerMisconfigured = "server_misconfigured"
	codeUnauthorized        = "unauthorized"
	codeInternalError       = "internal_error"
)

// ChatService answers chat requests as event streams.
type ChatService interface {
	CheckConfig() error
	Stream(ctx context.Context, req chatuc.Request) <-chan domain.StreamEvent
	StreamError(ctx context.Context, err error) <-chan domain.StreamEvent
}

// CredentialReporter reports credential presence by name.
type CredentialReporter interface {
	Presence() map[string]bool
}

// Server serves the chat API, health and metrics endpoints.
type Server struct {
	chat   ChatService
	health *healthuc.Service
	creds  CredentialReporter
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	health *healthuc.Service,
	creds CredentialReporter,
	logger *zap.Logger,
) *Server {
	return &Server{
		chat:   chat,
		health: health,
		creds:  creds,
		logger: logger,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envCheckResponse struct {
	Status   string          `json:"status"`
	Service  string          `json:"service"`
	EnvCheck map[string]bool `json:"env_check"`
}

type healthResponse struct {
	Status      healthuc.Status                 `json:"status"`
	Checks      map[string]healthuc.CheckResult `json:"checks"`
	Credentials map[string]bool                 `json:"credentials,omitempty"`
}

// Chat handles POST /api/chat and answers with a server-sent event stream.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := s.chat.CheckConfig(); err != nil {
		log.Error("Chat request rejected", zap.Error(err))
		var missing *domain.MissingCredentialsError
		if errors.As(err, &missing) {
			writeError(w, http.StatusInternalServerError, codeServerMisconfigured, missing.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, codeServerMisconfigured, "Server misconfigured")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var events <-chan domain.StreamEvent
	var req chatuc.Request
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		log.Warn("Invalid chat request body", zap.Error(err))
		events = s.chat.StreamError(ctx, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
	} else {
		events = s.chat.Stream(ctx, req)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	newEventWriter(w, log).drain(events, cancel)
}

// ChatEnvCheck handles GET /api/chat. Credentials are reported by presence only.
func (s *Server) ChatEnvCheck(w http.ResponseWriter, _ *http.Request) {
	env := map[string]bool{}
	if s.creds != nil {
		env = s.creds.Presence()
	}
	writeJSON(w, http.StatusOK, envCheckResponse{
		Status:   "ok",
		Service:  serviceName,
		EnvCheck: env,
	})
}

// ChatPreflight handles OPTIONS /api/chat requests that are not CORS preflights.
func (s *Server) ChatPreflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:      report.Status,
		Checks:      report.Checks,
		Credentials: report.Credentials,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

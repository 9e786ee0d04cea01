package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/antoble/chatbridge/internal/attachments"
	"github.com/antoble/chatbridge/internal/chatkit"
	"github.com/antoble/chatbridge/internal/config"
	"github.com/antoble/chatbridge/internal/observability"
	"github.com/antoble/chatbridge/internal/prompt"
	"github.com/antoble/chatbridge/internal/session"
	"github.com/antoble/chatbridge/internal/webhook"
)

// SessionMinter mints hosted widget sessions.
type SessionMinter interface {
	CreateSession(ctx context.Context, req chatkit.CreateSessionRequest) (chatkit.Session, error)
}

type Server struct {
	cfg       config.Config
	stores    *session.Stores
	prompts   *prompt.Cache
	minter    SessionMinter
	deliverer *webhook.Deliverer
	broker    *attachments.Broker
	metrics   *observability.Metrics
}

func New(
	cfg config.Config,
	stores *session.Stores,
	prompts *prompt.Cache,
	minter SessionMinter,
	deliverer *webhook.Deliverer,
	broker *attachments.Broker,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:       cfg,
		stores:    stores,
		prompts:   prompts,
		minter:    minter,
		deliverer: deliverer,
		broker:    broker,
		metrics:   metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chatkit/session", s.handleCreateWidgetSession)
		r.Post("/chatkit/refresh", s.handleRefreshWidgetSession)

		r.Post("/transcripts", s.handleStoreTranscript)
		r.Get("/transcripts/{sessionID}", s.handleGetTranscript)
		r.Delete("/transcripts/{sessionID}", s.handleDeleteTranscript)

		r.Post("/threads", s.handleStoreThread)
		r.Get("/threads/{sessionID}", s.handleGetThread)
		r.Post("/conversations", s.handleStoreConversation)
		r.Get("/conversations/{sessionID}", s.handleGetConversation)
		r.Get("/sessions", s.handleListSessions)

		r.Post("/webhook", s.handleTriggerWebhook)

		r.Post("/uploads", s.handleSignUpload)
		r.Post("/attachments/link", s.handleDownloadLink)
		r.Get("/attachments/t/{token}", s.handleProxyToken)
		r.Get("/attachments/{sessionID}/*", s.handleProxyScoped)
		r.Get("/attachments/{sessionID}", s.handleListAttachments)

		r.Post("/prompts/preview", s.handlePreviewPrompt)
		r.Delete("/prompts/cache", s.handleClearPromptCache)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"webhook_configured": s.deliverer != nil && s.deliverer.Configured(),
		"storage_configured": s.broker != nil,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/antoble/chatbridge/internal/chatkit"
	"github.com/antoble/chatbridge/internal/observability"
	"github.com/antoble/chatbridge/internal/prompt"
)

type widgetSessionRequest struct {
	SessionID  string         `json:"session_id"`
	WorkflowID string         `json:"workflow_id"`
	Variables  map[string]any `json:"variables"`
	TTLMs      int64          `json:"ttl_ms"`
}

type widgetSessionResponse struct {
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
	PromptKey    string `json:"prompt_key"`
	PromptCached bool   `json:"prompt_cached"`
}

func (s *Server) handleCreateWidgetSession(w http.ResponseWriter, r *http.Request) {
	s.mintWidgetSession(w, r)
}

// Refreshing is minting again: the hosted service has no refresh call, and
// the compiled prompt comes back from cache for unchanged parameters.
func (s *Server) handleRefreshWidgetSession(w http.ResponseWriter, r *http.Request) {
	s.mintWidgetSession(w, r)
}

func (s *Server) mintWidgetSession(w http.ResponseWriter, r *http.Request) {
	var req widgetSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	workflowID := strings.TrimSpace(req.WorkflowID)
	if workflowID == "" {
		workflowID = s.cfg.ChatKitWorkflowID
	}
	if workflowID == "" {
		respondError(w, http.StatusBadRequest, "missing_workflow_id", "no workflow id supplied or configured")
		return
	}

	entry, hit, err := s.prompts.Compile(prompt.CompileRequest{
		WorkflowID: workflowID,
		Parameters: req.Variables,
		TTL:        time.Duration(req.TTLMs) * time.Millisecond,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "prompt_unavailable", err.Error())
		return
	}
	s.observePromptLookup(hit)

	sess, err := s.minter.CreateSession(r.Context(), chatkit.CreateSessionRequest{
		WorkflowID: workflowID,
		User:       req.SessionID,
		StateVariables: map[string]any{
			"instructions": entry.Prompt,
		},
	})
	if err != nil {
		s.metrics.WidgetSessions.WithLabelValues("failed").Inc()
		s.observeUpstreamError("chatkit", err)
		respondError(w, http.StatusBadGateway, "chatkit_unavailable", err.Error())
		return
	}
	s.metrics.WidgetSessions.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, widgetSessionResponse{
		ClientSecret: sess.ClientSecret,
		ExpiresAt:    sess.ExpiresAt,
		PromptKey:    entry.Key,
		PromptCached: hit,
	})
}

func (s *Server) observePromptLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.PromptCacheLookups.WithLabelValues(result).Inc()
}

func (s *Server) observeUpstreamError(service string, err error) {
	class := "transport"
	var ckErr *chatkit.StatusError
	if errors.As(err, &ckErr) {
		class = observability.FailureClass(ckErr.Status)
	}
	s.metrics.UpstreamErrors.WithLabelValues(service, class).Inc()
}

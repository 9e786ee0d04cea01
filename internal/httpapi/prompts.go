package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/antoble/chatbridge/internal/prompt"
)

type previewPromptRequest struct {
	WorkflowID string `json:"workflow_id"`
	Parameters any    `json:"parameters"`
	TTLMs      int64  `json:"ttl_ms"`
	Key        string `json:"key"`
}

// handlePreviewPrompt compiles (or, when a key is supplied, looks up) a
// prompt without minting a widget session. Diagnostic surface.
func (s *Server) handlePreviewPrompt(w http.ResponseWriter, r *http.Request) {
	var req previewPromptRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
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

	if req.Key != "" {
		entry, err := s.prompts.ByKey(workflowID, req.Key, req.Parameters)
		if errors.Is(err, prompt.ErrNotFound) {
			s.metrics.PromptCacheLookups.WithLabelValues("expired_or_missing").Inc()
			respondError(w, http.StatusNotFound, "prompt_not_found", "no live entry for key")
			return
		}
		s.metrics.PromptCacheLookups.WithLabelValues("hit").Inc()
		respondJSON(w, http.StatusOK, entry)
		return
	}

	entry, hit, err := s.prompts.Compile(prompt.CompileRequest{
		WorkflowID: workflowID,
		Parameters: req.Parameters,
		TTL:        time.Duration(req.TTLMs) * time.Millisecond,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "prompt_unavailable", err.Error())
		return
	}
	s.observePromptLookup(hit)
	respondJSON(w, http.StatusOK, map[string]any{
		"key":         entry.Key,
		"workflow_id": entry.WorkflowID,
		"prompt":      entry.Prompt,
		"expires_at":  entry.ExpiresAt,
		"cached":      hit,
	})
}

func (s *Server) handleClearPromptCache(w http.ResponseWriter, _ *http.Request) {
	s.prompts.Clear()
	respondJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

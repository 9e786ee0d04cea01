package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/antoble/chatbridge/internal/observability"
	"github.com/antoble/chatbridge/internal/policy"
	"github.com/antoble/chatbridge/internal/webhook"
)

type triggerWebhookRequest struct {
	SessionID string         `json:"session_id"`
	Fields    map[string]any `json:"fields"`
}

func (s *Server) handleTriggerWebhook(w http.ResponseWriter, r *http.Request) {
	var req triggerWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	if s.deliverer == nil || !s.deliverer.Configured() {
		respondError(w, http.StatusServiceUnavailable, "webhook_unconfigured", "no webhook URL configured")
		return
	}

	// Each fact is read independently; absence of any of them is expected.
	facts := webhook.Facts{SessionID: req.SessionID}
	if threadID, err := s.stores.Threads.Get(req.SessionID); err == nil {
		facts.ThreadID = threadID
		facts.HasThread = true
	}
	if conversationID, err := s.stores.Conversations.Get(req.SessionID); err == nil {
		facts.ConversationID = conversationID
		facts.HasConversation = true
	}
	if rec, err := s.stores.Transcripts.Get(req.SessionID); err == nil {
		facts.Transcript = rec.Blob
		facts.HasTranscript = true
	}

	payload := webhook.BuildPayload(facts, req.Fields)
	if s.cfg.WebhookRedactPII {
		if transcript, ok := payload["transcript"].(string); ok && transcript != "" {
			redacted, _ := policy.RedactTranscript(transcript)
			payload["transcript"] = redacted
		}
	}

	if err := s.deliverer.Send(r.Context(), payload); err != nil {
		s.metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
		class := "transport"
		var statusErr *webhook.StatusError
		if errors.As(err, &statusErr) {
			class = observability.FailureClass(statusErr.Status)
		}
		s.metrics.UpstreamErrors.WithLabelValues("webhook", class).Inc()
		respondError(w, http.StatusBadGateway, "webhook_failed", err.Error())
		return
	}
	s.metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"delivered":        true,
		"session_id":       req.SessionID,
		"had_thread":       facts.HasThread,
		"had_conversation": facts.HasConversation,
		"had_transcript":   facts.HasTranscript,
	})
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/antoble/chatbridge/internal/session"
)

type storeTranscriptRequest struct {
	SessionID  string          `json:"session_id"`
	Transcript json.RawMessage `json:"transcript"`
}

func (s *Server) handleStoreTranscript(w http.ResponseWriter, r *http.Request) {
	var req storeTranscriptRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	if len(req.Transcript) == 0 {
		respondError(w, http.StatusBadRequest, "missing_transcript", "transcript is required")
		return
	}

	rec := session.Transcript{Blob: req.Transcript, StoredAt: time.Now().UTC()}
	s.stores.Transcripts.Put(req.SessionID, rec)
	s.observeStore("transcript", "put", s.stores.Transcripts.Len())

	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id": req.SessionID,
		"stored_at":  rec.StoredAt,
	})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	rec, err := s.stores.Transcripts.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		s.metrics.StoreEvents.WithLabelValues("transcript", "miss").Inc()
		respondError(w, http.StatusNotFound, "transcript_not_found", "no transcript for session")
		return
	}
	s.metrics.StoreEvents.WithLabelValues("transcript", "hit").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"transcript": rec.Blob,
		"stored_at":  rec.StoredAt,
	})
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	existed := s.stores.Transcripts.Delete(sessionID)
	s.observeStore("transcript", "delete", s.stores.Transcripts.Len())
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"deleted":    existed,
	})
}

type storeIDRequest struct {
	SessionID      string `json:"session_id"`
	ThreadID       string `json:"thread_id"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleStoreThread(w http.ResponseWriter, r *http.Request) {
	var req storeIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.ThreadID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id and thread_id are required")
		return
	}
	s.stores.Threads.Put(req.SessionID, req.ThreadID)
	s.observeStore("thread", "put", s.stores.Threads.Len())
	respondJSON(w, http.StatusCreated, map[string]any{"session_id": req.SessionID})
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	threadID, err := s.stores.Threads.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		s.metrics.StoreEvents.WithLabelValues("thread", "miss").Inc()
		respondError(w, http.StatusNotFound, "thread_not_found", "no thread id for session")
		return
	}
	s.metrics.StoreEvents.WithLabelValues("thread", "hit").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"thread_id":  threadID,
	})
}

func (s *Server) handleStoreConversation(w http.ResponseWriter, r *http.Request) {
	var req storeIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.ConversationID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id and conversation_id are required")
		return
	}
	s.stores.Conversations.Put(req.SessionID, req.ConversationID)
	s.observeStore("conversation", "put", s.stores.Conversations.Len())
	respondJSON(w, http.StatusCreated, map[string]any{"session_id": req.SessionID})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	conversationID, err := s.stores.Conversations.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		s.metrics.StoreEvents.WithLabelValues("conversation", "miss").Inc()
		respondError(w, http.StatusNotFound, "conversation_not_found", "no conversation id for session")
		return
	}
	s.metrics.StoreEvents.WithLabelValues("conversation", "hit").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":      sessionID,
		"conversation_id": conversationID,
	})
}

// handleListSessions is a diagnostics surface: the current key set of each
// store, unordered.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"transcripts":   s.stores.Transcripts.Keys(),
		"threads":       s.stores.Threads.Keys(),
		"conversations": s.stores.Conversations.Keys(),
	})
}

func (s *Server) observeStore(store, event string, size int) {
	s.metrics.StoreEvents.WithLabelValues(store, event).Inc()
	s.metrics.StoreRecords.WithLabelValues(store).Set(float64(size))
}

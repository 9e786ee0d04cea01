package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoble/chatbridge/internal/attachments"
)

type signUploadRequest struct {
	SessionID   string `json:"session_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (s *Server) handleSignUpload(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unconfigured", "attachment storage is not configured")
		return
	}
	var req signUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Filename) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id and filename are required")
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	grant, err := s.broker.SignUpload(r.Context(), req.SessionID, req.Filename, req.ContentType)
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues("storage", "transport").Inc()
		respondError(w, http.StatusBadGateway, "storage_failed", err.Error())
		return
	}
	s.metrics.SignedURLs.WithLabelValues("upload").Inc()
	respondJSON(w, http.StatusCreated, grant)
}

type downloadLinkRequest struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key"`
	Mode      string `json:"mode"`
}

func (s *Server) handleDownloadLink(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unconfigured", "attachment storage is not configured")
		return
	}
	var req downloadLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Key) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id and key are required")
		return
	}

	link, err := s.broker.DownloadLink(r.Context(), req.SessionID, req.Key, req.Mode)
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues("storage", "transport").Inc()
		respondError(w, http.StatusBadGateway, "storage_failed", err.Error())
		return
	}
	s.metrics.SignedURLs.WithLabelValues("download").Inc()
	respondJSON(w, http.StatusOK, link)
}

// handleProxyScoped redirects a path-scoped reference to a fresh signed URL.
func (s *Server) handleProxyScoped(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unconfigured", "attachment storage is not configured")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	rest := chi.URLParam(r, "*")
	if sessionID == "" || rest == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing session id or object path")
		return
	}

	key := attachments.SessionPrefix(sessionID) + rest
	s.redirectSigned(w, r, key)
}

func (s *Server) handleProxyToken(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unconfigured", "attachment storage is not configured")
		return
	}
	key, _, err := attachments.DecodeToken(chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_token", err.Error())
		return
	}
	s.redirectSigned(w, r, key)
}

func (s *Server) redirectSigned(w http.ResponseWriter, r *http.Request, key string) {
	url, err := s.broker.SignGet(r.Context(), key)
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues("storage", "transport").Inc()
		respondError(w, http.StatusBadGateway, "storage_failed", err.Error())
		return
	}
	s.metrics.SignedURLs.WithLabelValues("proxy").Inc()
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unconfigured", "attachment storage is not configured")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	objects, err := s.broker.ListSession(r.Context(), sessionID)
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues("storage", "transport").Inc()
		respondError(w, http.StatusBadGateway, "storage_failed", err.Error())
		return
	}
	if objects == nil {
		objects = []attachments.Object{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"objects":    objects,
	})
}

// Package chatkit talks to the hosted assistant service that issues
// widget sessions. The bridge only consumes its session API; transcripts,
// thread ids, and conversation ids flow back through the browser.
package chatkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com"

	betaHeader = "chatkit_beta=v1"
)

// StatusError reports a non-2xx response from the assistant service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatkit session status %d: %s", e.Status, e.Body)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &http.Client{Timeout: timeout},
	}
}

type CreateSessionRequest struct {
	WorkflowID     string
	User           string
	StateVariables map[string]any
}

// Session is the credential the embedding page hands to the widget.
type Session struct {
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
}

type sessionPayload struct {
	Workflow workflowPayload `json:"workflow"`
	User     string          `json:"user"`
}

type workflowPayload struct {
	ID             string         `json:"id"`
	StateVariables map[string]any `json:"state_variables,omitempty"`
}

// CreateSession mints a fresh widget session. There is no separate refresh
// operation upstream; refreshing is creating another session for the same
// user.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error) {
	payload, err := json.Marshal(sessionPayload{
		Workflow: workflowPayload{ID: req.WorkflowID, StateVariables: req.StateVariables},
		User:     req.User,
	})
	if err != nil {
		return Session{}, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chatkit/sessions", bytes.NewReader(payload))
	if err != nil {
		return Session{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("OpenAI-Beta", betaHeader)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Session{}, &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var sess Session
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return Session{}, fmt.Errorf("decode session response: %w", err)
	}
	if sess.ClientSecret == "" {
		return Session{}, fmt.Errorf("chatkit session response missing client_secret")
	}
	return sess, nil
}

package webhook

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

// StatusError reports a non-2xx response from the automation endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook status %d: %s", e.Status, e.Body)
}

// Deliverer posts payloads to a single configured URL. Delivery is
// one-shot: a failure is reported once and never retried.
type Deliverer struct {
	url    string
	client *http.Client
}

func NewDeliverer(url string, timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Deliverer{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

func (d *Deliverer) Configured() bool {
	return d.url != ""
}

// Send posts the payload as JSON. Success is any 2xx response.
func (d *Deliverer) Send(ctx context.Context, payload map[string]any) error {
	if d.url == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(detail))}
	}
	return nil
}

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildPayloadMergesFieldsAndFacts(t *testing.T) {
	payload := BuildPayload(Facts{
		SessionID:       "sess-1",
		ThreadID:        "th_1",
		HasThread:       true,
		ConversationID:  "conv_1",
		HasConversation: true,
		Transcript:      json.RawMessage(`"hello there"`),
		HasTranscript:   true,
	}, map[string]any{
		"email":      "ada@example.com",
		"session_id": "spoofed",
	})

	if payload["session_id"] != "sess-1" {
		t.Fatalf("reserved key session_id = %v, want sess-1", payload["session_id"])
	}
	if payload["thread_id"] != "th_1" || payload["conversation_id"] != "conv_1" {
		t.Fatalf("fact keys wrong: %+v", payload)
	}
	if payload["transcript"] != "hello there" {
		t.Fatalf("transcript = %v", payload["transcript"])
	}
	if payload["email"] != "ada@example.com" {
		t.Fatalf("form field dropped: %+v", payload)
	}
}

func TestBuildPayloadAbsentFacts(t *testing.T) {
	payload := BuildPayload(Facts{SessionID: "sess-1"}, nil)

	if payload["thread_id"] != "" || payload["conversation_id"] != "" || payload["transcript"] != "" {
		t.Fatalf("absent facts should be empty strings: %+v", payload)
	}
}

func TestFlattenTranscript(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "message array",
			raw:  `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`,
			want: "user: hi\nassistant: hello",
		},
		{
			name: "typed content parts",
			raw:  `[{"role":"user","content":[{"type":"input_text","text":"part one"},{"type":"input_text","text":"part two"}]}]`,
			want: "user: part one part two",
		},
		{
			name: "text field",
			raw:  `[{"role":"assistant","text":"plain"}]`,
			want: "assistant: plain",
		},
		{
			name: "plain string",
			raw:  `"already text"`,
			want: "already text",
		},
		{
			name: "opaque object kept raw",
			raw:  `{"weird":true}`,
			want: `{"weird":true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenTranscript(json.RawMessage(tt.raw)); got != tt.want {
				t.Fatalf("FlattenTranscript() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDelivererSend(t *testing.T) {
	var received map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	d := NewDeliverer(upstream.URL, time.Second)
	err := d.Send(context.Background(), map[string]any{"session_id": "sess-1"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if received["session_id"] != "sess-1" {
		t.Fatalf("delivered payload = %+v", received)
	}
}

func TestDelivererSurfacesFailureOnce(t *testing.T) {
	attempts := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "hook disabled", http.StatusGone)
	}))
	defer upstream.Close()

	d := NewDeliverer(upstream.URL, time.Second)
	err := d.Send(context.Background(), map[string]any{})
	if err == nil {
		t.Fatalf("Send() should fail on non-2xx")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusGone {
		t.Fatalf("error = %v, want StatusError with 410", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want exactly 1 (no retry)", attempts)
	}
}

func TestDelivererUnconfigured(t *testing.T) {
	d := NewDeliverer("", time.Second)
	if d.Configured() {
		t.Fatalf("Configured() = true for empty URL")
	}
	if err := d.Send(context.Background(), map[string]any{}); err == nil {
		t.Fatalf("Send() without URL should error")
	}
}

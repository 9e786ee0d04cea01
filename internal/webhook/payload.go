// Package webhook assembles and delivers flat JSON payloads to the
// configured automation endpoint.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Facts are the three session-scoped values read from the stores. They are
// written by uncoordinated requests, so each one is independently
// possibly-absent.
type Facts struct {
	SessionID       string
	ThreadID        string
	HasThread       bool
	ConversationID  string
	HasConversation bool
	Transcript      json.RawMessage
	HasTranscript   bool
}

// BuildPayload merges caller-supplied form fields with the session facts
// into one flat object. Reserved keys always reflect the facts; absent
// facts are emitted as empty strings so the automation side sees a stable
// shape.
func BuildPayload(facts Facts, fields map[string]any) map[string]any {
	payload := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		payload[k] = v
	}

	payload["session_id"] = facts.SessionID
	payload["thread_id"] = ""
	if facts.HasThread {
		payload["thread_id"] = facts.ThreadID
	}
	payload["conversation_id"] = ""
	if facts.HasConversation {
		payload["conversation_id"] = facts.ConversationID
	}
	payload["transcript"] = ""
	if facts.HasTranscript {
		payload["transcript"] = FlattenTranscript(facts.Transcript)
	}
	return payload
}

type transcriptMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Text    string          `json:"text"`
}

// FlattenTranscript turns the stored transcript blob into readable text:
// one "role: content" line per message for the usual message-array shape,
// the string itself for plain strings, raw JSON otherwise.
func FlattenTranscript(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var msgs []transcriptMessage
	if err := json.Unmarshal(raw, &msgs); err == nil && len(msgs) > 0 {
		lines := make([]string, 0, len(msgs))
		for _, m := range msgs {
			text := m.Text
			if text == "" {
				text = contentText(m.Content)
			}
			if m.Role == "" {
				lines = append(lines, text)
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, text))
		}
		return strings.Join(lines, "\n")
	}

	return string(raw)
}

func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Widget transcripts sometimes carry content as a list of typed parts.
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, " ")
	}
	return string(raw)
}

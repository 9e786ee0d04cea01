package session

import (
	"context"
	"encoding/json"
	"time"
)

// Transcript is the chat transcript captured for a session, kept verbatim as
// the JSON the client reported.
type Transcript struct {
	Blob     json.RawMessage `json:"transcript"`
	StoredAt time.Time       `json:"stored_at"`
}

// StoresConfig controls retention for the three session-fact stores.
type StoresConfig struct {
	TranscriptRetention   time.Duration
	TranscriptSweepPeriod time.Duration
	IDRetention           time.Duration
	IDSweepPeriod         time.Duration
}

// Stores bundles the three independent session-fact stores. They share a key
// space (the session id) but are written by uncoordinated requests; readers
// must treat each fact as independently possibly-absent.
type Stores struct {
	Transcripts   *Store[Transcript]
	Threads       *Store[string]
	Conversations *Store[string]

	cfg StoresConfig
}

func NewStores(cfg StoresConfig) *Stores {
	return &Stores{
		Transcripts:   NewStore[Transcript](cfg.TranscriptRetention),
		Threads:       NewStore[string](cfg.IDRetention),
		Conversations: NewStore[string](cfg.IDRetention),
		cfg:           cfg,
	}
}

// StartJanitors launches the background sweeps. Stores with zero retention
// never start one.
func (s *Stores) StartJanitors(ctx context.Context) {
	s.Transcripts.StartJanitor(ctx, s.cfg.TranscriptSweepPeriod)
	s.Threads.StartJanitor(ctx, s.cfg.IDSweepPeriod)
	s.Conversations.StartJanitor(ctx, s.cfg.IDSweepPeriod)
}

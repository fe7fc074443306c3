// Package otel provides structured observability for the gallery.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer keeps the most recent events in memory for the
// debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Photo query lifecycle
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindFetchStale    EventKind = "fetch.stale"
	KindFetchCached   EventKind = "fetch.cached"

	// Controller transitions
	KindSearchStart EventKind = "search.start"
	KindLoadMore    EventKind = "search.more"
	KindRetry       EventKind = "search.retry"

	// Search history persistence
	KindHistoryError EventKind = "history.error"

	// UI events
	KindKeyPress    EventKind = "ui.key"
	KindScrollFire  EventKind = "ui.scroll_fire"
	KindMsgReceived EventKind = "trace.msg_received"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // "gallery", "flickr", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // same for the whole run
	QueryID   string         `json:"qid,omitempty"`        // controller query generation
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Page      int            `json:"page,omitempty"`
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}

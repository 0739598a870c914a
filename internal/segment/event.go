package segment

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	// EventTypeIdentify states who an entity is (traits), not an action.
	EventTypeIdentify EventType = "identify"
	// EventTypeTrack states that an entity performed a named action.
	EventTypeTrack EventType = "track"
)

// Event is one outbound message for the ingestion API. MessageID carries the
// deterministic delivery key the API uses for deduplication, which is what
// makes retried or re-triggered sends safe to replay.
type Event struct {
	Type      EventType
	UserID    string
	MessageID string

	// Timestamp is the time the event originally occurred. Zero means the
	// ingestion API assigns receipt time; backfilled history sets it to the
	// source row's creation time.
	Timestamp time.Time

	// Name is the track event name ("Order Completed", "Order Refunded").
	// Empty for identify events.
	Name string

	Traits     map[string]any // identify payload
	Properties map[string]any // track payload
	Context    map[string]any
}

// Snapshot serializes the event in its wire shape for failure-record
// payloads, so triage sees exactly what would have been sent.
func (e Event) Snapshot() []byte {
	b, err := json.Marshal(e.message(time.Time{}))
	if err != nil {
		return nil
	}
	return b
}

// message renders the event in the batch API wire shape.
func (e Event) message(sentAt time.Time) map[string]any {
	msg := map[string]any{
		"type":      string(e.Type),
		"userId":    e.UserID,
		"messageId": e.MessageID,
	}
	if !sentAt.IsZero() {
		msg["sentAt"] = sentAt.UTC().Format(time.RFC3339Nano)
	}
	if !e.Timestamp.IsZero() {
		msg["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	switch e.Type {
	case EventTypeIdentify:
		msg["traits"] = e.Traits
	case EventTypeTrack:
		msg["event"] = e.Name
		msg["properties"] = e.Properties
	}
	if len(e.Context) > 0 {
		msg["context"] = e.Context
	}
	return msg
}

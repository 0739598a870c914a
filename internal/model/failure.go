package model

import "time"

// FailureRecord is the durable record of an event that could not be
// delivered: validation failures before send, permanent API rejections, and
// transient failures whose retries were exhausted. Immutable except Resolved,
// which is flipped only by operator action.
type FailureRecord struct {
	ID            int64
	EntityType    EntityType
	EntityID      string
	EventType     string // "identify" or "track"
	ErrorMessage  string
	ErrorCategory ErrorCategory
	Payload       string // serialized outbound event, for triage
	CreatedAt     time.Time
	RetryCount    int32
	Resolved      bool
}

// FailureSummary aggregates unresolved failure records for reporting.
type FailureSummary struct {
	TotalUnresolved int64
	ByCategory      map[ErrorCategory]int64
	ByEntity        map[EntityType]int64
}

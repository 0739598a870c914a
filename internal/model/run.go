package model

import "time"

// SyncRun reports the outcome of one sync run for one entity type.
type SyncRun struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entity_type"`

	// Attempted counts every row read from the source store this run.
	Attempted int `json:"attempted"`
	// Delivered counts rows whose events were acknowledged and whose synced
	// flag was set.
	Delivered int `json:"delivered"`
	// Failed counts rows whose events failed delivery after retry handling.
	Failed int `json:"failed"`
	// Invalid counts rows rejected by validation before any send.
	Invalid int `json:"invalid"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

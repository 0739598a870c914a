package dto

import (
	"time"

	"shopstream.app/sync/internal/model"
)

type SyncRunResponse struct {
	ID         int64  `json:"id"`
	EntityType string `json:"entity_type"`
	Attempted  int    `json:"attempted"`
	Delivered  int    `json:"delivered"`
	Failed     int    `json:"failed"`
	Invalid    int    `json:"invalid"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

func ToSyncRunResponse(run model.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:         run.ID,
		EntityType: string(run.EntityType),
		Attempted:  run.Attempted,
		Delivered:  run.Delivered,
		Failed:     run.Failed,
		Invalid:    run.Invalid,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		FinishedAt: run.FinishedAt.Format(time.RFC3339),
	}
}

type SyncAllResponse struct {
	Runs []SyncRunResponse `json:"runs"`
}

func ToSyncAllResponse(runs []model.SyncRun) SyncAllResponse {
	out := SyncAllResponse{Runs: make([]SyncRunResponse, 0, len(runs))}
	for _, run := range runs {
		out.Runs = append(out.Runs, ToSyncRunResponse(run))
	}
	return out
}

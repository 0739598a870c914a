package dto

import (
	"time"

	"shopstream.app/sync/internal/model"
)

type FailureRecordResponse struct {
	ID            int64  `json:"id"`
	EntityType    string `json:"entity_type"`
	EntityID      string `json:"entity_id"`
	EventType     string `json:"event_type"`
	ErrorMessage  string `json:"error_message"`
	ErrorCategory string `json:"error_category"`
	Payload       string `json:"payload,omitempty"`
	CreatedAt     string `json:"created_at"`
	RetryCount    int32  `json:"retry_count"`
	Resolved      bool   `json:"resolved"`
}

func ToFailureRecordResponse(rec model.FailureRecord) FailureRecordResponse {
	return FailureRecordResponse{
		ID:            rec.ID,
		EntityType:    string(rec.EntityType),
		EntityID:      rec.EntityID,
		EventType:     rec.EventType,
		ErrorMessage:  rec.ErrorMessage,
		ErrorCategory: string(rec.ErrorCategory),
		Payload:       rec.Payload,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		RetryCount:    rec.RetryCount,
		Resolved:      rec.Resolved,
	}
}

type FailureListResponse struct {
	Failures []FailureRecordResponse `json:"failures"`
	Count    int                     `json:"count"`
}

func ToFailureListResponse(recs []model.FailureRecord) FailureListResponse {
	out := FailureListResponse{Failures: make([]FailureRecordResponse, 0, len(recs))}
	for _, rec := range recs {
		out.Failures = append(out.Failures, ToFailureRecordResponse(rec))
	}
	out.Count = len(out.Failures)
	return out
}

type FailureSummaryResponse struct {
	TotalUnresolved int64            `json:"total_unresolved"`
	ByCategory      map[string]int64 `json:"by_category"`
	ByEntity        map[string]int64 `json:"by_entity"`
}

func ToFailureSummaryResponse(summary model.FailureSummary) FailureSummaryResponse {
	out := FailureSummaryResponse{
		TotalUnresolved: summary.TotalUnresolved,
		ByCategory:      make(map[string]int64, len(summary.ByCategory)),
		ByEntity:        make(map[string]int64, len(summary.ByEntity)),
	}
	for category, n := range summary.ByCategory {
		out.ByCategory[string(category)] = n
	}
	for entity, n := range summary.ByEntity {
		out.ByEntity[string(entity)] = n
	}
	return out
}

package audit

import (
	"time"

	"github.com/google/uuid"
)

// Record is one durable audit entry. Records are written exactly once by
// the ingestor and never updated or deleted afterwards; retention is an
// administrative concern outside this service.
type Record struct {
	// ID is assigned by the store on insert and is opaque to callers.
	ID            string
	EventID       uuid.UUID
	SourceService string
	// ActorID identifies the user or subject of the action and is the
	// query key for per-actor retrieval.
	ActorID    string
	ActionType string
	Payload    Payload
	// OccurredAt orders reads (descending). Stored in UTC.
	OccurredAt time.Time
	// Level is a free-form severity label ("Info", "Warning", ...); it is
	// recorded, not validated.
	Level string
}

// IsZero reports whether the record carries no data at all. The store
// rejects such writes instead of silently ignoring them.
func (r Record) IsZero() bool {
	return r.EventID == uuid.Nil &&
		r.SourceService == "" &&
		r.ActorID == "" &&
		r.ActionType == "" &&
		r.Payload.kind == "" &&
		r.OccurredAt.IsZero() &&
		r.Level == ""
}

// InboundEvent mirrors the transport envelope producers publish. Data is
// always text at the boundary; the ingestor decides its stored shape.
type InboundEvent struct {
	EventID       uuid.UUID `json:"eventId"`
	SourceService string    `json:"sourceService"`
	ActorID       string    `json:"actorId"`
	ActionType    string    `json:"actionType"`
	Data          string    `json:"data"`
	OccurredAt    time.Time `json:"occurredAt"`
	Level         string    `json:"level"`
}

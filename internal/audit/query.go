package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"audittrail/internal/audit/metrics"
)

// RecordDTO is the output representation served by the read API. It is
// identical to Record except for Payload, which is unwrapped to the native
// nested value (structured) or the plain string (opaque).
type RecordDTO struct {
	ID            string    `json:"id"`
	EventID       uuid.UUID `json:"eventId"`
	SourceService string    `json:"sourceService"`
	ActorID       string    `json:"actorId"`
	ActionType    string    `json:"actionType"`
	Payload       any       `json:"payload"`
	OccurredAt    time.Time `json:"occurredAt"`
	Level         string    `json:"level"`
}

// QueryService maps stored records to output DTOs. It applies no
// filtering, paging, or reordering: output order is exactly the store's
// descending-time order.
type QueryService struct {
	store   Store
	metrics *metrics.Metrics
}

func NewQueryService(store Store, m *metrics.Metrics) *QueryService {
	return &QueryService{store: store, metrics: m}
}

// GetAll returns every stored record, newest first.
func (q *QueryService) GetAll(ctx context.Context) ([]RecordDTO, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "audit.GetAll")
	defer span.End()

	start := time.Now()
	records, err := q.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	q.metrics.ObserveQueryLatency("all", time.Since(start))
	return toDTOs(records), nil
}

// GetByActor returns the records for one actor, newest first. An unknown
// actor yields an empty list, not an error.
func (q *QueryService) GetByActor(ctx context.Context, actorID string) ([]RecordDTO, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "audit.GetByActor")
	defer span.End()

	start := time.Now()
	records, err := q.store.ListByActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	q.metrics.ObserveQueryLatency("by_actor", time.Since(start))
	return toDTOs(records), nil
}

func toDTOs(records []Record) []RecordDTO {
	dtos := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, RecordDTO{
			ID:            r.ID,
			EventID:       r.EventID,
			SourceService: r.SourceService,
			ActorID:       r.ActorID,
			ActionType:    r.ActionType,
			Payload:       r.Payload.Unwrap(),
			OccurredAt:    r.OccurredAt,
			Level:         r.Level,
		})
	}
	return dtos
}

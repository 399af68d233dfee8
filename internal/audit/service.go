package audit

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"audittrail/internal/audit/metrics"
	dErrors "audittrail/pkg/domain-errors"
)

const tracerName = "audittrail/internal/audit"

// Ingestor turns inbound events into stored records. It is stateless: each
// invocation issues exactly one append and returns. Failures surface to
// the caller so the transport can apply its own redelivery policy; nothing
// here retries, and a failed append leaves no partial record.
type Ingestor struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewIngestor(store Store, logger *slog.Logger, m *metrics.Metrics) *Ingestor {
	return &Ingestor{store: store, logger: logger, metrics: m}
}

// OnEvent normalizes the event's data field, copies the remaining fields
// verbatim, and appends the resulting record. The ingestor performs no
// deduplication: redelivery of the same event produces a duplicate record.
func (s *Ingestor) OnEvent(ctx context.Context, event InboundEvent) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "audit.OnEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String("audit.event_id", event.EventID.String()),
		attribute.String("audit.action_type", event.ActionType),
	)

	payload := Normalize(event.Data)
	record := Record{
		EventID:       event.EventID,
		SourceService: event.SourceService,
		ActorID:       event.ActorID,
		ActionType:    event.ActionType,
		Payload:       payload,
		OccurredAt:    event.OccurredAt.UTC(),
		Level:         event.Level,
	}

	recordID, err := s.store.Append(ctx, record)
	if err != nil {
		s.metrics.IncIngested("rejected", string(payload.Kind()))
		s.metrics.IncAppendFailure(string(dErrors.CodeOf(err)))
		s.logger.ErrorContext(ctx, "failed to append audit record",
			"event_id", event.EventID,
			"source_service", event.SourceService,
			"error", err,
		)
		return err
	}

	s.metrics.IncIngested("stored", string(payload.Kind()))
	s.logger.DebugContext(ctx, "stored audit record",
		"record_id", recordID,
		"event_id", event.EventID,
		"payload_kind", payload.Kind(),
	)
	return nil
}

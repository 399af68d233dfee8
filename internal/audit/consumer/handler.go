// Package consumer decodes inbound audit events from the message
// transport and feeds them to the ingestor.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"audittrail/internal/audit"
	"audittrail/internal/platform/kafka/consumer"
	dErrors "audittrail/pkg/domain-errors"
)

// Ingestor is the single entry point the transport invokes per event.
type Ingestor interface {
	OnEvent(ctx context.Context, event audit.InboundEvent) error
}

// Handler turns one Kafka record into one ingested audit record.
type Handler struct {
	ingestor Ingestor
	logger   *slog.Logger
}

func NewHandler(ingestor Ingestor, logger *slog.Logger) *Handler {
	return &Handler{ingestor: ingestor, logger: logger}
}

// Handle decodes the event envelope and ingests it. Envelopes that cannot
// be decoded are logged and committed: redelivery cannot fix a malformed
// message. Store failures are returned uncommitted so the broker
// redelivers; this loop never retries on its own.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event audit.InboundEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.ErrorContext(ctx, "malformed audit event envelope, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	if err := h.ingestor.OnEvent(ctx, event); err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			// A validation reject is deterministic; redelivering the same
			// event would reject it again.
			h.logger.ErrorContext(ctx, "audit event rejected, skipping",
				"event_id", event.EventID,
				"error", err,
			)
			return nil
		}
		return err
	}
	return nil
}

// Package redis persists audit records in Redis sorted sets. The score is
// the occurrence time in microseconds, so ZREVRANGE yields the
// descending-time contract directly; a per-actor set carries the actor
// index. Timestamps closer together than one microsecond tie and fall
// back to lexicographic member order, which is stable within a call.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"audittrail/internal/audit"
	dErrors "audittrail/pkg/domain-errors"
)

const (
	allKey         = "audit:records"
	actorKeyPrefix = "audit:actor:"
)

type Store struct {
	client *goredis.Client
}

func New(client *goredis.Client) *Store {
	return &Store{client: client}
}

// storedRecord is the member encoding. The record ID makes every member
// unique, so duplicate events stay duplicate records.
type storedRecord struct {
	ID            string        `json:"id"`
	EventID       uuid.UUID     `json:"eventId"`
	SourceService string        `json:"sourceService"`
	ActorID       string        `json:"actorId"`
	ActionType    string        `json:"actionType"`
	Payload       audit.Payload `json:"payload"`
	OccurredAt    time.Time     `json:"occurredAt"`
	Level         string        `json:"level"`
}

func (s *Store) Append(ctx context.Context, record audit.Record) (string, error) {
	if record.IsZero() {
		return "", dErrors.New(dErrors.CodeValidation, "audit record is required")
	}

	record.ID = uuid.NewString()
	member, err := json.Marshal(storedRecord{
		ID:            record.ID,
		EventID:       record.EventID,
		SourceService: record.SourceService,
		ActorID:       record.ActorID,
		ActionType:    record.ActionType,
		Payload:       record.Payload,
		OccurredAt:    record.OccurredAt,
		Level:         record.Level,
	})
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "encode audit record", err)
	}

	entry := goredis.Z{
		Score:  float64(record.OccurredAt.UnixMicro()),
		Member: member,
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZAdd(ctx, allKey, entry)
		pipe.ZAdd(ctx, actorKeyPrefix+record.ActorID, entry)
		return nil
	})
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeUnavailable, "append audit record", err)
	}
	return record.ID, nil
}

func (s *Store) ListAll(ctx context.Context) ([]audit.Record, error) {
	return s.list(ctx, allKey)
}

func (s *Store) ListByActor(ctx context.Context, actorID string) ([]audit.Record, error) {
	return s.list(ctx, actorKeyPrefix+actorID)
}

func (s *Store) list(ctx context.Context, key string) ([]audit.Record, error) {
	members, err := s.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "range audit records", err)
	}

	records := make([]audit.Record, 0, len(members))
	for _, member := range members {
		var stored storedRecord
		if err := json.Unmarshal([]byte(member), &stored); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "decode audit record", err)
		}
		records = append(records, audit.Record{
			ID:            stored.ID,
			EventID:       stored.EventID,
			SourceService: stored.SourceService,
			ActorID:       stored.ActorID,
			ActionType:    stored.ActionType,
			Payload:       stored.Payload,
			OccurredAt:    stored.OccurredAt.UTC(),
			Level:         stored.Level,
		})
	}
	return records, nil
}

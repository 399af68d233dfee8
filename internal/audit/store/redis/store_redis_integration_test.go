//go:build integration

package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"audittrail/internal/audit"
	redisstore "audittrail/internal/audit/store/redis"
	dErrors "audittrail/pkg/domain-errors"
	"audittrail/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *containers.RedisContainer
	store     *redisstore.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container = containers.GetManager().GetRedis(s.T())
	s.store = redisstore.New(s.container.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.container.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) record(actorID, data string, occurredAt time.Time) audit.Record {
	return audit.Record{
		EventID:       uuid.New(),
		SourceService: "payment-service",
		ActorID:       actorID,
		ActionType:    "payment",
		Payload:       audit.Normalize(data),
		OccurredAt:    occurredAt,
		Level:         "Information",
	}
}

func (s *RedisStoreSuite) TestAppendAssignsUniqueIDs() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	id1, err := s.store.Append(s.ctx, s.record("u1", `{"a":1}`, now))
	s.Require().NoError(err)
	id2, err := s.store.Append(s.ctx, s.record("u1", `{"a":1}`, now))
	s.Require().NoError(err)

	s.NotEmpty(id1)
	s.NotEqual(id1, id2)

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}

func (s *RedisStoreSuite) TestAppendRejectsZeroRecord() {
	_, err := s.store.Append(s.ctx, audit.Record{})

	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *RedisStoreSuite) TestStructuredPayloadRoundTrip() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := s.record("u1", `{"amount":100,"tags":["a","b"]}`, now)

	_, err := s.store.Append(s.ctx, rec)
	s.Require().NoError(err)

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)

	got := records[0]
	s.Equal(rec.EventID, got.EventID)
	s.Equal(audit.KindStructured, got.Payload.Kind())
	s.Equal(map[string]any{
		"amount": json.Number("100"),
		"tags":   []any{"a", "b"},
	}, got.Payload.Unwrap())
	s.Equal(now, got.OccurredAt)
}

func (s *RedisStoreSuite) TestOpaquePayloadRoundTrip() {
	rec := s.record("u1", "plain text entry", time.Now().UTC().Truncate(time.Microsecond))

	_, err := s.store.Append(s.ctx, rec)
	s.Require().NoError(err)

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(audit.KindOpaque, records[0].Payload.Kind())
	s.Equal("plain text entry", records[0].Payload.Unwrap())
}

func (s *RedisStoreSuite) TestListAllDescendingByOccurredAt() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	oldest := s.record("u1", `{"n":1}`, base.Add(-2*time.Hour))
	middle := s.record("u2", `{"n":2}`, base.Add(-time.Hour))
	newest := s.record("u1", `{"n":3}`, base)

	for _, rec := range []audit.Record{middle, oldest, newest} {
		_, err := s.store.Append(s.ctx, rec)
		s.Require().NoError(err)
	}

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(newest.EventID, records[0].EventID)
	s.Equal(middle.EventID, records[1].EventID)
	s.Equal(oldest.EventID, records[2].EventID)
}

func (s *RedisStoreSuite) TestListByActorFiltersAndOrders() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	older := s.record("u1", `{"n":1}`, base.Add(-time.Hour))
	other := s.record("u2", `{"n":2}`, base.Add(-30*time.Minute))
	newer := s.record("u1", `{"n":3}`, base)

	for _, rec := range []audit.Record{older, other, newer} {
		_, err := s.store.Append(s.ctx, rec)
		s.Require().NoError(err)
	}

	records, err := s.store.ListByActor(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(newer.EventID, records[0].EventID)
	s.Equal(older.EventID, records[1].EventID)
}

func (s *RedisStoreSuite) TestListByActorUnknownActorIsEmpty() {
	_, err := s.store.Append(s.ctx, s.record("u1", `{"n":1}`, time.Now().UTC()))
	s.Require().NoError(err)

	records, err := s.store.ListByActor(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(records)
}

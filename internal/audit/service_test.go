package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"audittrail/internal/audit"
	"audittrail/internal/audit/mocks"
	dErrors "audittrail/pkg/domain-errors"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks Store

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(data string) audit.InboundEvent {
	return audit.InboundEvent{
		EventID:       uuid.New(),
		SourceService: "auth-service",
		ActorID:       "user123",
		ActionType:    "login",
		Data:          data,
		OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Level:         "Info",
	}
}

func TestOnEvent_StoresStructuredPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ingestor := audit.NewIngestor(store, discardLogger(), nil)

	event := testEvent(`{"ip":"127.0.0.1"}`)
	var stored audit.Record
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record audit.Record) (string, error) {
			stored = record
			return "rec-1", nil
		})

	err := ingestor.OnEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID, stored.EventID)
	assert.Equal(t, event.SourceService, stored.SourceService)
	assert.Equal(t, event.ActorID, stored.ActorID)
	assert.Equal(t, event.ActionType, stored.ActionType)
	assert.Equal(t, event.OccurredAt, stored.OccurredAt)
	assert.Equal(t, event.Level, stored.Level)
	assert.Equal(t, audit.KindStructured, stored.Payload.Kind())
	assert.Equal(t, map[string]any{"ip": "127.0.0.1"}, stored.Payload.Unwrap())
}

func TestOnEvent_StoresOpaquePayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ingestor := audit.NewIngestor(store, discardLogger(), nil)

	var stored audit.Record
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record audit.Record) (string, error) {
			stored = record
			return "rec-1", nil
		})

	err := ingestor.OnEvent(context.Background(), testEvent("Simple string message, not json"))
	require.NoError(t, err)

	assert.Equal(t, audit.KindOpaque, stored.Payload.Kind())
	assert.Equal(t, "Simple string message, not json", stored.Payload.Unwrap())
}

func TestOnEvent_NormalizesOccurredAtToUTC(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ingestor := audit.NewIngestor(store, discardLogger(), nil)

	loc := time.FixedZone("UTC+5", 5*3600)
	event := testEvent("x")
	event.OccurredAt = time.Date(2026, 3, 1, 17, 0, 0, 0, loc)

	var stored audit.Record
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record audit.Record) (string, error) {
			stored = record
			return "rec-1", nil
		})

	require.NoError(t, ingestor.OnEvent(context.Background(), event))
	assert.Equal(t, time.UTC, stored.OccurredAt.Location())
	assert.True(t, stored.OccurredAt.Equal(event.OccurredAt))
}

// A store failure surfaces to the caller unchanged: the transport owns
// the redelivery decision and the ingestor must not retry.
func TestOnEvent_PropagatesStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ingestor := audit.NewIngestor(store, discardLogger(), nil)

	storeErr := dErrors.New(dErrors.CodeUnavailable, "connection refused")
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return("", storeErr).Times(1)

	err := ingestor.OnEvent(context.Background(), testEvent("x"))

	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}

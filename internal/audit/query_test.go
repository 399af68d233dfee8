package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"audittrail/internal/audit"
	"audittrail/internal/audit/mocks"
	memorystore "audittrail/internal/audit/store/memory"
	dErrors "audittrail/pkg/domain-errors"
)

func TestGetAll_UnwrapsPayloads(t *testing.T) {
	store := memorystore.New()
	ingestor := audit.NewIngestor(store, discardLogger(), nil)
	query := audit.NewQueryService(store, nil)
	ctx := context.Background()

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	structured := testEvent(`{"ip":"127.0.0.1"}`)
	structured.OccurredAt = t1
	opaque := testEvent("plain text")
	opaque.OccurredAt = t1.Add(time.Minute)

	require.NoError(t, ingestor.OnEvent(ctx, structured))
	require.NoError(t, ingestor.OnEvent(ctx, opaque))

	dtos, err := query.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, dtos, 2)

	// Newest first: the opaque record at T2, then the structured at T1.
	assert.Equal(t, "plain text", dtos[0].Payload)
	assert.Equal(t, map[string]any{"ip": "127.0.0.1"}, dtos[1].Payload)
	assert.Equal(t, structured.EventID, dtos[1].EventID)
	assert.Equal(t, "user123", dtos[1].ActorID)
}

// GetAll output round-trips through the store losslessly: the unwrapped
// payload is deep-equal to the parsed tree of the original data field.
func TestGetAll_StructuredRoundTripIsLossless(t *testing.T) {
	store := memorystore.New()
	ingestor := audit.NewIngestor(store, discardLogger(), nil)
	query := audit.NewQueryService(store, nil)
	ctx := context.Background()

	raw := `{"user":{"id":42,"roles":["admin","auditor"]},"active":true,"score":99.5}`
	require.NoError(t, ingestor.OnEvent(ctx, testEvent(raw)))

	dtos, err := query.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, dtos, 1)

	want := map[string]any{
		"user": map[string]any{
			"id":    json.Number("42"),
			"roles": []any{"admin", "auditor"},
		},
		"active": true,
		"score":  json.Number("99.5"),
	}
	assert.Equal(t, want, dtos[0].Payload)
}

func TestGetAll_EmptyStoreYieldsEmptyList(t *testing.T) {
	query := audit.NewQueryService(memorystore.New(), nil)

	dtos, err := query.GetAll(context.Background())

	require.NoError(t, err)
	require.NotNil(t, dtos, "readers get an empty list, never null")
	assert.Empty(t, dtos)
}

func TestGetAll_ReadIdempotence(t *testing.T) {
	store := memorystore.New()
	ingestor := audit.NewIngestor(store, discardLogger(), nil)
	query := audit.NewQueryService(store, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		event := testEvent(`{"n":` + string(rune('0'+i)) + `}`)
		event.OccurredAt = time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC)
		require.NoError(t, ingestor.OnEvent(ctx, event))
	}

	first, err := query.GetAll(ctx)
	require.NoError(t, err)
	second, err := query.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetAll_PropagatesStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	query := audit.NewQueryService(store, nil)

	store.EXPECT().ListAll(gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "connection refused"))

	_, err := query.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}

// Mirrors the two-event scenario: u1 gets a structured record at T1 and an
// opaque one at T2; the per-actor read returns [record2, record1].
func TestGetByActor_Scenario(t *testing.T) {
	store := memorystore.New()
	ingestor := audit.NewIngestor(store, discardLogger(), nil)
	query := audit.NewQueryService(store, nil)
	ctx := context.Background()

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	first := audit.InboundEvent{
		EventID: uuid.New(), SourceService: "svc", ActorID: "u1",
		ActionType: "login", Data: `{"ip":"127.0.0.1"}`, OccurredAt: t1, Level: "Info",
	}
	second := audit.InboundEvent{
		EventID: uuid.New(), SourceService: "svc", ActorID: "u1",
		ActionType: "note", Data: "plain text", OccurredAt: t2, Level: "Info",
	}
	other := audit.InboundEvent{
		EventID: uuid.New(), SourceService: "svc", ActorID: "u2",
		ActionType: "login", Data: "{}", OccurredAt: t2, Level: "Info",
	}
	for _, e := range []audit.InboundEvent{first, second, other} {
		require.NoError(t, ingestor.OnEvent(ctx, e))
	}

	dtos, err := query.GetByActor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, dtos, 2)
	assert.Equal(t, second.EventID, dtos[0].EventID)
	assert.Equal(t, "plain text", dtos[0].Payload)
	assert.Equal(t, first.EventID, dtos[1].EventID)
	assert.Equal(t, map[string]any{"ip": "127.0.0.1"}, dtos[1].Payload)
}

func TestGetByActor_UnknownActorYieldsEmpty(t *testing.T) {
	query := audit.NewQueryService(memorystore.New(), nil)

	dtos, err := query.GetByActor(context.Background(), "nobody")

	require.NoError(t, err)
	require.NotNil(t, dtos)
	assert.Empty(t, dtos)
}

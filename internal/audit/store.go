package audit

import "context"

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory, Postgres, or Redis persistence without rewiring
// business code. All implementations are append-only: no operation mutates
// or deletes an existing record.
type Store interface {
	// Append inserts one new record and returns the store-assigned ID.
	// A zero-value record is rejected with a CodeValidation error; a
	// persistence fault surfaces as CodeUnavailable. Append never
	// deduplicates: redelivered events become duplicate records unless
	// the producer enforces idempotency upstream.
	Append(ctx context.Context, record Record) (string, error)

	// ListAll returns every record ordered by OccurredAt descending.
	// Records sharing a timestamp keep a stable relative order within a
	// single call; the order across calls or backends is unspecified.
	ListAll(ctx context.Context) ([]Record, error)

	// ListByActor returns the records whose ActorID equals actorID, in
	// the same descending order. An unknown actor yields an empty slice,
	// not an error.
	ListByActor(ctx context.Context, actorID string) ([]Record, error)
}

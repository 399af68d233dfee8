// Package memory keeps the development and test store lightweight. It
// intentionally favors clarity over performance: records live in a single
// slice and reads sort on the way out, which keeps appends trivially
// concurrent.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"audittrail/internal/audit"
	dErrors "audittrail/pkg/domain-errors"
)

type Store struct {
	mu      sync.RWMutex
	records []audit.Record
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, record audit.Record) (string, error) {
	if record.IsZero() {
		return "", dErrors.New(dErrors.CodeValidation, "audit record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = uuid.NewString()
	s.records = append(s.records, record)
	return record.ID, nil
}

func (s *Store) ListAll(_ context.Context) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortDescending(s.records, func(audit.Record) bool { return true }), nil
}

func (s *Store) ListByActor(_ context.Context, actorID string) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortDescending(s.records, func(r audit.Record) bool { return r.ActorID == actorID }), nil
}

// sortDescending copies the matching records and orders them newest first.
// The stable sort keeps insertion order for equal timestamps within a call.
func sortDescending(records []audit.Record, match func(audit.Record) bool) []audit.Record {
	out := make([]audit.Record, 0, len(records))
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}

// Clear resets the store between tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

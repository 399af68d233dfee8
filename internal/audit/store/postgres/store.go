// Package postgres persists audit records in PostgreSQL. Structured
// payloads live in a JSONB column and opaque payloads in a plain text
// column; the kind tag has its own column so reads reconstruct the union
// without re-parsing.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"audittrail/internal/audit"
	dErrors "audittrail/pkg/domain-errors"
)

// Schema creates the audit_records table and its read-path indexes.
// Statements are idempotent so startup can apply them unconditionally.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id             UUID PRIMARY KEY,
	event_id       UUID NOT NULL,
	source_service TEXT NOT NULL DEFAULT '',
	actor_id       TEXT NOT NULL DEFAULT '',
	action_type    TEXT NOT NULL DEFAULT '',
	payload_kind   TEXT NOT NULL,
	payload_doc    JSONB,
	payload_text   TEXT,
	occurred_at    TIMESTAMPTZ NOT NULL,
	level          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_records_occurred_at
	ON audit_records (occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_records_actor
	ON audit_records (actor_id, occurred_at DESC);
`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the table definition. Safe to call on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Append inserts one record. The insert is a single statement, so it is
// atomic per record: either the whole row lands or nothing does.
func (s *Store) Append(ctx context.Context, record audit.Record) (string, error) {
	if record.IsZero() {
		return "", dErrors.New(dErrors.CodeValidation, "audit record is required")
	}

	var (
		payloadDoc  []byte
		payloadText sql.NullString
	)
	switch record.Payload.Kind() {
	case audit.KindStructured:
		doc, _ := record.Payload.Document()
		encoded, err := json.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("marshal structured payload: %w", err)
		}
		payloadDoc = encoded
	default:
		text, _ := record.Payload.Text()
		payloadText = sql.NullString{String: text, Valid: true}
	}

	recordID := uuid.New()
	query := `
		INSERT INTO audit_records (
			id, event_id, source_service, actor_id, action_type,
			payload_kind, payload_doc, payload_text, occurred_at, level
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		recordID,
		record.EventID,
		record.SourceService,
		record.ActorID,
		record.ActionType,
		string(record.Payload.Kind()),
		payloadDoc,
		payloadText,
		record.OccurredAt,
		record.Level,
	)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeUnavailable, "insert audit record", err)
	}
	return recordID.String(), nil
}

const selectColumns = `
	SELECT id, event_id, source_service, actor_id, action_type,
		   payload_kind, payload_doc, payload_text, occurred_at, level
	FROM audit_records
`

// ListAll returns every record, most recent first. The id tie-break keeps
// equal timestamps in a deterministic order within a call.
func (s *Store) ListAll(ctx context.Context) ([]audit.Record, error) {
	query := selectColumns + ` ORDER BY occurred_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "query audit records", err)
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// ListByActor returns the records for one actor, most recent first.
func (s *Store) ListByActor(ctx context.Context, actorID string) ([]audit.Record, error) {
	query := selectColumns + ` WHERE actor_id = $1 ORDER BY occurred_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "query audit records", err)
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

func (s *Store) scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	records := []audit.Record{}

	for rows.Next() {
		var (
			record      audit.Record
			id          uuid.UUID
			kind        string
			payloadDoc  []byte
			payloadText sql.NullString
		)
		err := rows.Scan(
			&id,
			&record.EventID,
			&record.SourceService,
			&record.ActorID,
			&record.ActionType,
			&kind,
			&payloadDoc,
			&payloadText,
			&record.OccurredAt,
			&record.Level,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}

		record.ID = id.String()
		record.OccurredAt = record.OccurredAt.UTC()
		switch audit.PayloadKind(kind) {
		case audit.KindStructured:
			doc, err := audit.DecodeDocument(payloadDoc)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", record.ID, err)
			}
			record.Payload = audit.StructuredPayload(doc)
		default:
			record.Payload = audit.OpaquePayload(payloadText.String)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "iterate audit records", err)
	}
	return records, nil
}

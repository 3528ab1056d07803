package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// OperationLogWriter writes completed operations to Postgres using batched
// multi-row INSERTs. Writes are idempotent: replayed sequences are dropped
// by ON CONFLICT.
type OperationLogWriter struct {
	db *sql.DB
}

// OperationRow represents a row in vault.operations.
type OperationRow struct {
	Sequence       int64
	EventType      string
	IdempotencyKey string
	UserID         *string // nil for operations with no user, e.g. oracle swaps
	Asset          string
	Amount         int64
	Payload        []byte // JSON-encoded event payload
	Timestamp      int64  // unix microseconds
}

func NewOperationLogWriter(db *sql.DB) *OperationLogWriter {
	return &OperationLogWriter{db: db}
}

// WriteBatch writes a batch of operations to vault.operations.
func (w *OperationLogWriter) WriteBatch(ctx context.Context, rows []OperationRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO vault.operations
		(sequence, event_type, idempotency_key, user_id, asset, amount, payload, timestamp)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*8)

	for i, r := range rows {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			r.Sequence, r.EventType, r.IdempotencyKey, r.UserID,
			r.Asset, r.Amount, r.Payload, r.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING" // Idempotent writes

	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

// MarshalEventPayload serializes an event payload to JSON for storage.
func MarshalEventPayload(payload interface{}) ([]byte, error) {
	return json.Marshal(payload)
}

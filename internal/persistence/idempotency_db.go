package persistence

import (
	"context"
	"database/sql"
	"time"
)

// DBIdempotencyChecker looks operations up in the operation log. It is the
// cold tier behind the dispatcher's in-memory LRU.
type DBIdempotencyChecker struct {
	db      *sql.DB
	timeout time.Duration
}

func NewDBIdempotencyChecker(db *sql.DB) *DBIdempotencyChecker {
	return &DBIdempotencyChecker{
		db:      db,
		timeout: 2 * time.Second,
	}
}

// IsDuplicate reports whether an operation with this key was already
// persisted. Operation ids are globally unique, so the lookup ignores the
// operation type.
func (c *DBIdempotencyChecker) IsDuplicate(_ string, operationID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM vault.operations
			WHERE idempotency_key = $1
		)
	`, operationID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

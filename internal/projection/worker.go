package projection

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"VaultLedger/internal/observability"
)

// Update mirrors the data projection workers need from an applied operation.
// The orchestrator bridges between engine output and this.
type Update struct {
	Sequence  int64
	EventType string
	UserID    *string
	Asset     string
	// Amount is signed: positive for deposits, negative for withdrawals.
	Amount    int64
	Timestamp int64
}

// Worker updates projection tables from applied operations.
// The projection channel is non-blocking with drop: if projections fall
// behind, they can be rebuilt from the operation log.
type Worker struct {
	db        *sql.DB
	inputChan <-chan Update
	metrics   *observability.Metrics
	lastSeq   int64
}

func NewWorker(db *sql.DB, inputChan <-chan Update, metrics *observability.Metrics) *Worker {
	return &Worker{
		db:        db,
		inputChan: inputChan,
		metrics:   metrics,
	}
}

// Run starts the projection worker loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update, ok := <-w.inputChan:
			if !ok {
				return nil
			}

			if err := w.apply(ctx, update); err != nil {
				log.Printf("WARN: projection update failed at seq=%d: %v", update.Sequence, err)
				if w.metrics != nil {
					w.metrics.ProjectionErrors.Inc()
				}
				// Continue: projections are eventually consistent and
				// can be rebuilt from the operation log.
			}

			w.lastSeq = update.Sequence
			if w.metrics != nil {
				w.metrics.ProjectionLastSequence.Set(float64(update.Sequence))
			}
		}
	}
}

func (w *Worker) apply(ctx context.Context, update Update) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Oracle updates carry no balance movement; only the watermark advances.
	if update.UserID != nil && update.Amount != 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vault.balances (user_id, asset, balance, last_sequence)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, asset)
			DO UPDATE SET balance = vault.balances.balance + $3, last_sequence = $4
		`, *update.UserID, update.Asset, update.Amount, update.Sequence); err != nil {
			return fmt.Errorf("balance projection: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vault.watermark (worker_id, last_sequence, updated_at)
		VALUES ('main', $1, NOW())
		ON CONFLICT (worker_id) DO UPDATE SET last_sequence = $1, updated_at = NOW()
	`, update.Sequence); err != nil {
		return fmt.Errorf("watermark update: %w", err)
	}

	return tx.Commit()
}

// RebuildProjections rebuilds the balance projection from the operation log.
func RebuildProjections(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE vault.balances`); err != nil {
		return fmt.Errorf("truncate balances: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM vault.watermark WHERE worker_id = 'main'`); err != nil {
		return fmt.Errorf("reset watermark: %w", err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO vault.balances (user_id, asset, balance, last_sequence)
		SELECT
			user_id,
			asset,
			SUM(CASE WHEN event_type = 'Withdraw' THEN -amount ELSE amount END) AS balance,
			MAX(sequence) AS last_sequence
		FROM vault.operations
		WHERE user_id IS NOT NULL AND event_type IN ('Deposit', 'Withdraw')
		GROUP BY user_id, asset
	`)
	if err != nil {
		return fmt.Errorf("rebuild balances: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO vault.watermark (worker_id, last_sequence, updated_at)
		SELECT 'main', COALESCE(MAX(sequence), 0), NOW() FROM vault.operations
		ON CONFLICT (worker_id) DO UPDATE
			SET last_sequence = EXCLUDED.last_sequence, updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("rebuild watermark: %w", err)
	}

	log.Println("INFO: projection rebuild complete")
	return nil
}

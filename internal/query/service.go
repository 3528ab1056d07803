package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Service provides read-only access to the projection tables.
// All responses include as_of_sequence for freshness semantics: readers
// can tell how far behind the operation log the projection is.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// GetBalance returns a user's projected balance for a specific asset.
// A user with no rows for the asset has a zero balance, not an error.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID, asset string) (*BalanceResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	var balance int64
	err = s.db.QueryRowContext(ctx, `
		SELECT balance FROM vault.balances
		WHERE user_id = $1 AND asset = $2
	`, userID, asset).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return &BalanceResponse{
		UserID:       userID,
		Asset:        asset,
		Balance:      balance,
		AsOfSequence: asOfSeq,
	}, nil
}

// GetBalances returns all non-zero projected balances for a user.
func (s *Service) GetBalances(ctx context.Context, userID uuid.UUID) ([]BalanceResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT asset, balance FROM vault.balances
		WHERE user_id = $1 AND balance != 0
		ORDER BY asset
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []BalanceResponse
	for rows.Next() {
		b := BalanceResponse{UserID: userID, AsOfSequence: asOfSeq}
		if err := rows.Scan(&b.Asset, &b.Balance); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}

	return balances, rows.Err()
}

// GetHistory returns a user's operations from the log with cursor-based
// pagination: pass the lowest sequence from the previous page as
// beforeSequence to fetch the next one.
func (s *Service) GetHistory(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	beforeSequence *int64,
) ([]HistoryEntry, error) {
	query := `
		SELECT sequence, event_type, idempotency_key, asset, amount, timestamp
		FROM vault.operations
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	argIdx := 2

	if beforeSequence != nil {
		query += fmt.Sprintf(" AND sequence < $%d", argIdx)
		args = append(args, *beforeSequence)
		argIdx++
	}

	query += " ORDER BY sequence DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.Sequence, &e.EventType, &e.IdempotencyKey,
			&e.Asset, &e.Amount, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetVaultSummary returns aggregate custody totals per asset, summed
// across all users from the balance projection.
func (s *Service) GetVaultSummary(ctx context.Context) (*VaultSummary, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT asset, SUM(balance) AS total
		FROM vault.balances
		GROUP BY asset
		HAVING SUM(balance) != 0
		ORDER BY asset
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &VaultSummary{
		Holdings:     make(map[string]int64),
		AsOfSequence: asOfSeq,
	}
	for rows.Next() {
		var asset string
		var total int64
		if err := rows.Scan(&asset, &total); err != nil {
			return nil, err
		}
		summary.Holdings[asset] = total
	}

	return summary, rows.Err()
}

func (s *Service) getWatermark(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT last_sequence FROM vault.watermark WHERE worker_id = 'main'
	`).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return seq, err
}

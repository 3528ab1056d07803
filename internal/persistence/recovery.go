package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"VaultLedger/internal/asset"
	"VaultLedger/internal/ledger"
)

// RecoveredState is the in-memory state rebuilt from the operation log at
// startup.
type RecoveredState struct {
	Balances      map[ledger.BalanceKey]int64
	Holdings      map[asset.Asset]int64
	DepositCount  int64
	WithdrawCount int64

	// NextSequence is one past the highest logged sequence; an empty log
	// yields zero.
	NextSequence int64
}

// LoadState aggregates the operation log into balances, custody holdings,
// and counters. Deposits add, withdrawals subtract; both move the custody
// holding together with the user balance.
func LoadState(ctx context.Context, db *sql.DB) (*RecoveredState, error) {
	state := &RecoveredState{
		Balances: make(map[ledger.BalanceKey]int64),
		Holdings: make(map[asset.Asset]int64),
	}

	rows, err := db.QueryContext(ctx, `
		SELECT user_id, asset,
		       SUM(CASE WHEN event_type = 'Withdraw' THEN -amount ELSE amount END)
		FROM vault.operations
		WHERE user_id IS NOT NULL AND event_type IN ('Deposit', 'Withdraw')
		GROUP BY user_id, asset
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregate balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var a string
		var balance int64
		if err := rows.Scan(&userID, &a, &balance); err != nil {
			return nil, err
		}
		user, err := uuid.Parse(userID)
		if err != nil {
			return nil, fmt.Errorf("malformed user id in log: %w", err)
		}
		state.Balances[ledger.BalanceKey{User: user, Asset: asset.Asset(a)}] = balance
		state.Holdings[asset.Asset(a)] += balance
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE event_type = 'Deposit'),
			COUNT(*) FILTER (WHERE event_type = 'Withdraw'),
			COALESCE(MAX(sequence) + 1, 0)
		FROM vault.operations
	`).Scan(&state.DepositCount, &state.WithdrawCount, &state.NextSequence)
	if err != nil {
		return nil, fmt.Errorf("aggregate counters: %w", err)
	}

	return state, nil
}

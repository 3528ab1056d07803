package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"VaultLedger/internal/persistence"
	"VaultLedger/internal/testutil"
)

func row(seq int64, eventType string, user uuid.UUID, amount int64) persistence.OperationRow {
	u := user.String()
	return persistence.OperationRow{
		Sequence:       seq,
		EventType:      eventType,
		IdempotencyKey: uuid.New().String(),
		UserID:         &u,
		Asset:          "usd-stable",
		Amount:         amount,
		Payload:        []byte(`{}`),
		Timestamp:      time.Now().UnixMicro(),
	}
}

// ============================================================================
// Test: OperationLogWriter (integration)
// ============================================================================

func TestWriteBatch_Integration(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	writer := persistence.NewOperationLogWriter(db)
	ctx := context.Background()
	user := uuid.New()

	rows := []persistence.OperationRow{
		row(0, "Deposit", user, 1000),
		row(1, "Withdraw", user, 400),
	}
	if err := writer.WriteBatch(ctx, rows); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM vault.operations`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("got %d rows, want 2", count)
	}
}

func TestWriteBatch_ReplayedSequenceIgnored(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	writer := persistence.NewOperationLogWriter(db)
	ctx := context.Background()
	user := uuid.New()

	first := row(0, "Deposit", user, 1000)
	if err := writer.WriteBatch(ctx, []persistence.OperationRow{first}); err != nil {
		t.Fatalf("first write: %v", err)
	}

	replay := first
	replay.Amount = 9999
	if err := writer.WriteBatch(ctx, []persistence.OperationRow{replay}); err != nil {
		t.Fatalf("replay write: %v", err)
	}

	var amount int64
	if err := db.QueryRow(`SELECT amount FROM vault.operations WHERE sequence = 0`).Scan(&amount); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if amount != 1000 {
		t.Errorf("replay must not overwrite: amount = %d, want 1000", amount)
	}
}

// ============================================================================
// Test: LoadState (integration)
// ============================================================================

func TestLoadState_Integration(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	writer := persistence.NewOperationLogWriter(db)
	ctx := context.Background()
	user := uuid.New()

	rows := []persistence.OperationRow{
		row(0, "Deposit", user, 1000),
		row(1, "Deposit", user, 500),
		row(2, "Withdraw", user, 300),
	}
	if err := writer.WriteBatch(ctx, rows); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	state, err := persistence.LoadState(ctx, db)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}

	if state.NextSequence != 3 {
		t.Errorf("next sequence = %d, want 3", state.NextSequence)
	}
	if state.DepositCount != 2 || state.WithdrawCount != 1 {
		t.Errorf("counters = %d/%d, want 2/1", state.DepositCount, state.WithdrawCount)
	}

	var total int64
	for key, balance := range state.Balances {
		if key.User == user && string(key.Asset) == "usd-stable" {
			total = balance
		}
	}
	if total != 1200 {
		t.Errorf("recovered balance = %d, want 1200", total)
	}
}

func TestLoadState_EmptyLog(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	state, err := persistence.LoadState(context.Background(), db)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state.NextSequence != 0 {
		t.Errorf("next sequence = %d, want 0", state.NextSequence)
	}
	if len(state.Balances) != 0 {
		t.Errorf("balances should be empty, got %d", len(state.Balances))
	}
}

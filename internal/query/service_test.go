package query_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"VaultLedger/internal/query"
	"VaultLedger/internal/testutil"
)

func seed(t *testing.T, db *sql.DB, user uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO vault.operations (sequence, event_type, idempotency_key, user_id, asset, amount, payload, timestamp)
		VALUES
			(0, 'Deposit',  $1, $2, 'usd-stable', 1000, '{}', 1),
			(1, 'Withdraw', $3, $2, 'usd-stable',  250, '{}', 2)
	`, uuid.New().String(), user, uuid.New().String())
	if err != nil {
		t.Fatalf("seed operations: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO vault.balances (user_id, asset, balance, last_sequence)
		VALUES ($1, 'usd-stable', 750, 1)
	`, user)
	if err != nil {
		t.Fatalf("seed balances: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO vault.watermark (worker_id, last_sequence, updated_at)
		VALUES ('main', 1, NOW())
	`)
	if err != nil {
		t.Fatalf("seed watermark: %v", err)
	}
}

// ============================================================================
// Test: query service (integration)
// ============================================================================

func TestGetBalance_Integration(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	user := uuid.New()
	seed(t, db, user)

	svc := query.NewService(db)
	resp, err := svc.GetBalance(context.Background(), user, "usd-stable")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	if resp.Balance != 750 {
		t.Errorf("balance = %d, want 750", resp.Balance)
	}
	if resp.AsOfSequence != 1 {
		t.Errorf("as_of_sequence = %d, want 1", resp.AsOfSequence)
	}
}

func TestGetBalance_UnknownUserIsZero(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	svc := query.NewService(db)
	resp, err := svc.GetBalance(context.Background(), uuid.New(), "usd-stable")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if resp.Balance != 0 {
		t.Errorf("balance = %d, want 0", resp.Balance)
	}
}

func TestGetHistory_Pagination(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	user := uuid.New()
	seed(t, db, user)

	svc := query.NewService(db)
	ctx := context.Background()

	page, err := svc.GetHistory(ctx, user, 1, nil)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(page) != 1 || page[0].Sequence != 1 {
		t.Fatalf("first page = %+v, want the newest entry", page)
	}

	next, err := svc.GetHistory(ctx, user, 1, &page[0].Sequence)
	if err != nil {
		t.Fatalf("get history page 2: %v", err)
	}
	if len(next) != 1 || next[0].Sequence != 0 {
		t.Errorf("second page = %+v, want sequence 0", next)
	}
}

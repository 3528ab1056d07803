package ingestion_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"VaultLedger/internal/ingestion"
)

func rawOp(opType string, data string) ingestion.RawOp {
	return ingestion.RawOp{OpType: opType, Data: []byte(data)}
}

// ============================================================================
// Test: ParseRawOp
// ============================================================================

func TestParseRawOp_DepositNative(t *testing.T) {
	opID := uuid.New()
	userID := uuid.New()
	data := fmt.Sprintf(`{"operation_id":%q,"user_id":%q,"amount":1000000000000000000}`, opID, userID)

	req, err := ingestion.ParseRawOp(rawOp(ingestion.OpDepositNative, data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dep, ok := req.(*ingestion.DepositNativeRequest)
	if !ok {
		t.Fatalf("got %T, want *DepositNativeRequest", req)
	}
	if dep.OpID != opID || dep.UserID != userID || dep.Amount != 1_000_000_000_000_000_000 {
		t.Errorf("unexpected request: %+v", dep)
	}
	if req.OperationID() != opID {
		t.Errorf("OperationID() = %v, want %v", req.OperationID(), opID)
	}
}

func TestParseRawOp_DepositOther(t *testing.T) {
	opID := uuid.New()
	userID := uuid.New()
	data := fmt.Sprintf(`{"operation_id":%q,"user_id":%q,"asset_in":"wrapped-btc","amount":5000}`, opID, userID)

	req, err := ingestion.ParseRawOp(rawOp(ingestion.OpDepositOther, data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dep, ok := req.(*ingestion.DepositOtherRequest)
	if !ok {
		t.Fatalf("got %T, want *DepositOtherRequest", req)
	}
	if string(dep.AssetIn) != "wrapped-btc" || dep.Amount != 5000 {
		t.Errorf("unexpected request: %+v", dep)
	}
}

func TestParseRawOp_SetOracle(t *testing.T) {
	opID := uuid.New()
	callerID := uuid.New()
	data := fmt.Sprintf(`{"operation_id":%q,"caller_id":%q,"feed":"http://feeds.internal/native-usd"}`, opID, callerID)

	req, err := ingestion.ParseRawOp(rawOp(ingestion.OpSetOracle, data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	so, ok := req.(*ingestion.SetOracleRequest)
	if !ok {
		t.Fatalf("got %T, want *SetOracleRequest", req)
	}
	if so.CallerID != callerID || so.Feed != "http://feeds.internal/native-usd" {
		t.Errorf("unexpected request: %+v", so)
	}
}

func TestParseRawOp_Withdrawals(t *testing.T) {
	opID := uuid.New()
	userID := uuid.New()
	data := fmt.Sprintf(`{"operation_id":%q,"user_id":%q,"amount":42}`, opID, userID)

	for opType, wantType := range map[string]string{
		ingestion.OpWithdrawNative:     "*ingestion.WithdrawNativeRequest",
		ingestion.OpWithdrawSettlement: "*ingestion.WithdrawSettlementRequest",
		ingestion.OpDepositSettlement:  "*ingestion.DepositSettlementRequest",
	} {
		req, err := ingestion.ParseRawOp(rawOp(opType, data))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", opType, err)
		}
		if got := fmt.Sprintf("%T", req); got != wantType {
			t.Errorf("%s: got %s, want %s", opType, got, wantType)
		}
		if req.OpType() != opType {
			t.Errorf("OpType() = %q, want %q", req.OpType(), opType)
		}
	}
}

func TestParseRawOp_Rejections(t *testing.T) {
	opID := uuid.New()
	userID := uuid.New()

	cases := []struct {
		name   string
		opType string
		data   string
	}{
		{"unknown op type", "Burn", `{}`},
		{"malformed json", ingestion.OpDepositNative, `{"operation_id":`},
		{"bad operation id", ingestion.OpDepositNative, `{"operation_id":"nope","user_id":"` + userID.String() + `","amount":1}`},
		{"bad user id", ingestion.OpDepositNative, `{"operation_id":"` + opID.String() + `","user_id":"nope","amount":1}`},
		{"negative amount", ingestion.OpWithdrawSettlement, fmt.Sprintf(`{"operation_id":%q,"user_id":%q,"amount":-5}`, opID, userID)},
		{"negative converted amount", ingestion.OpDepositOther, fmt.Sprintf(`{"operation_id":%q,"user_id":%q,"asset_in":"x","amount":-5}`, opID, userID)},
		{"empty oracle feed", ingestion.OpSetOracle, fmt.Sprintf(`{"operation_id":%q,"caller_id":%q,"feed":""}`, opID, userID)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ingestion.ParseRawOp(rawOp(tc.opType, tc.data)); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}

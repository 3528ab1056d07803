package exchange_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultLedger/internal/asset"
	"VaultLedger/internal/exchange"
)

type fakeRouter struct {
	amounts  []int64
	err      error
	lastPath []asset.Asset
	lastMin  int64
}

func (r *fakeRouter) SwapExactInput(
	ctx context.Context,
	amountIn, amountOutMin int64,
	path []asset.Asset,
	recipient uuid.UUID,
	deadline time.Time,
) ([]int64, error) {
	r.lastPath = path
	r.lastMin = amountOutMin
	if r.err != nil {
		return nil, r.err
	}
	return r.amounts, nil
}

// ============================================================================
// Test: Convert
// ============================================================================

func TestConvert_Success(t *testing.T) {
	router := &fakeRouter{amounts: []int64{1000, 995}}
	gw := exchange.NewGateway(router, zerolog.Nop())

	result := gw.Convert(context.Background(), 1000, 0, asset.Asset("wrapped-btc"), asset.Asset("usd-stable"), uuid.New(), time.Now().Add(time.Minute))

	if !result.OK {
		t.Fatal("conversion should succeed")
	}
	if result.Output() != 995 {
		t.Errorf("Output() = %d, want 995", result.Output())
	}
	if len(router.lastPath) != 2 || router.lastPath[0] != "wrapped-btc" || router.lastPath[1] != "usd-stable" {
		t.Errorf("unexpected swap path: %v", router.lastPath)
	}
}

func TestConvert_RouterErrorNormalized(t *testing.T) {
	// Router failures never propagate as errors; they collapse into a
	// failed result.
	router := &fakeRouter{err: errors.New("no liquidity path")}
	gw := exchange.NewGateway(router, zerolog.Nop())

	result := gw.Convert(context.Background(), 500, 0, asset.Asset("obscure-token"), asset.Asset("usd-stable"), uuid.New(), time.Now().Add(time.Minute))

	if result.OK {
		t.Error("conversion should fail")
	}
	if result.Output() != 0 {
		t.Errorf("failed conversion Output() = %d, want 0", result.Output())
	}
}

func TestConvert_PassesMinimumThrough(t *testing.T) {
	router := &fakeRouter{amounts: []int64{100, 99}}
	gw := exchange.NewGateway(router, zerolog.Nop())

	gw.Convert(context.Background(), 100, 42, asset.Asset("a"), asset.Asset("b"), uuid.New(), time.Now().Add(time.Minute))

	if router.lastMin != 42 {
		t.Errorf("amountOutMin = %d, want 42", router.lastMin)
	}
}

func TestResult_OutputEmptyAmounts(t *testing.T) {
	r := exchange.Result{OK: true}
	if r.Output() != 0 {
		t.Errorf("Output() on empty amounts = %d, want 0", r.Output())
	}
}

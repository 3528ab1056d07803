package math_test

import (
	"testing"

	fpmath "VaultLedger/internal/math"
)

// ============================================================================
// Test: NativeValue
// ============================================================================

func TestNativeValue_OneCoin(t *testing.T) {
	// 1 native coin at a rate of 2000 reference units per coin.
	amount := fpmath.NativeConfig.Scale
	rate := int64(2000) * fpmath.OracleConfig.Scale

	value := fpmath.NativeValue(amount, rate)

	want := int64(2000) * fpmath.OracleConfig.Scale
	if value != want {
		t.Errorf("NativeValue(1 coin, 2000) = %d, want %d", value, want)
	}
}

func TestNativeValue_FractionalCoin(t *testing.T) {
	// 0.5 coin at 2000/coin = 1000 reference units.
	amount := fpmath.NativeConfig.Scale / 2
	rate := int64(2000) * fpmath.OracleConfig.Scale

	value := fpmath.NativeValue(amount, rate)

	want := int64(1000) * fpmath.OracleConfig.Scale
	if value != want {
		t.Errorf("got %d, want %d", value, want)
	}
}

func TestNativeValue_Truncates(t *testing.T) {
	// 1 smallest native unit at rate 1: 1 * 1 / 1e18 truncates to 0.
	if got := fpmath.NativeValue(1, 1); got != 0 {
		t.Errorf("sub-unit value should truncate to 0, got %d", got)
	}

	// Just below one full unit of output also truncates.
	if got := fpmath.NativeValue(fpmath.NativeConfig.Scale-1, 1); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestNativeValue_ZeroAmount(t *testing.T) {
	rate := int64(2000) * fpmath.OracleConfig.Scale
	if got := fpmath.NativeValue(0, rate); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestNativeValue_LargeAmountsNoOverflow(t *testing.T) {
	// 9 coins at a high rate: the raw product exceeds int64 range, the
	// quotient does not.
	amount := int64(9) * fpmath.NativeConfig.Scale
	rate := int64(100_000) * fpmath.OracleConfig.Scale

	value := fpmath.NativeValue(amount, rate)

	want := int64(900_000) * fpmath.OracleConfig.Scale
	if value != want {
		t.Errorf("got %d, want %d", value, want)
	}
}

// ============================================================================
// Test: OracleToSettlement
// ============================================================================

func TestOracleToSettlement_Rescale(t *testing.T) {
	// 2000 reference units at oracle precision become 2000 at settlement
	// precision.
	v := int64(2000) * fpmath.OracleConfig.Scale
	got := fpmath.OracleToSettlement(v)

	want := int64(2000) * fpmath.SettlementConfig.Scale
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestOracleToSettlement_TruncatesSubUnit(t *testing.T) {
	if got := fpmath.OracleToSettlement(fpmath.DecimalFactor - 1); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestDecimalFactor_MatchesScales(t *testing.T) {
	if fpmath.OracleConfig.Scale/fpmath.SettlementConfig.Scale != fpmath.DecimalFactor {
		t.Errorf("DecimalFactor %d does not match scale ratio %d",
			fpmath.DecimalFactor, fpmath.OracleConfig.Scale/fpmath.SettlementConfig.Scale)
	}
}

// ============================================================================
// Test: DivideInt128 rounding
// ============================================================================

func TestDivideInt128_RoundDown(t *testing.T) {
	raw := fpmath.MultiplyInt128(7, 1)
	if got := fpmath.DivideInt128(raw, 2, fpmath.RoundDown); got != 3 {
		t.Errorf("7/2 round down = %d, want 3", got)
	}
}

func TestDivideInt128_RoundHalfEven(t *testing.T) {
	cases := []struct {
		numerator int64
		want      int64
	}{
		{5, 2}, // 2.5 rounds to even 2
		{7, 4}, // 3.5 rounds to even 4
		{6, 3}, // exact
		{9, 4}, // 4.5 rounds to even 4
	}

	for _, tc := range cases {
		raw := fpmath.MultiplyInt128(tc.numerator, 1)
		got := fpmath.DivideInt128(raw, 2, fpmath.RoundHalfEven)
		if got != tc.want {
			t.Errorf("%d/2 half-even = %d, want %d", tc.numerator, got, tc.want)
		}
	}
}

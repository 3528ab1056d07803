package math

import (
	"math/big"
	"sync"
)

// DecimalConfig defines fixed-point precision
type DecimalConfig struct {
	DecimalPrecision int   // Number of decimal places
	Scale            int64 // 10^DecimalPrecision
}

var (
	// NativeConfig is the native coin's smallest-unit precision.
	NativeConfig = DecimalConfig{DecimalPrecision: 18, Scale: 1_000_000_000_000_000_000}

	// SettlementConfig is the settlement asset's precision. The bank cap is
	// denominated in this domain.
	SettlementConfig = DecimalConfig{DecimalPrecision: 6, Scale: 1_000_000}

	// OracleConfig is the price feed's native precision. The per-transaction
	// withdrawal limit is denominated in this domain.
	OracleConfig = DecimalConfig{DecimalPrecision: 8, Scale: 100_000_000}
)

// DecimalFactor rescales reference-currency values from the oracle precision
// domain to the settlement precision domain. It is applied only on the
// native-to-reference conversion path; the bank cap and the withdrawal limit
// are never normalized against each other.
const DecimalFactor = 100 // OracleConfig.Scale / SettlementConfig.Scale

// Int128 is a pooled big.Int for intermediate calculations
var int128Pool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getInt128() *big.Int {
	return int128Pool.Get().(*big.Int)
}

func putInt128(v *big.Int) {
	v.SetInt64(0) // Clear before returning to pool
	int128Pool.Put(v)
}

// MultiplyInt128 performs a * b using int128 to prevent overflow
func MultiplyInt128(a, b int64) *big.Int {
	result := getInt128()
	result.Mul(big.NewInt(a), big.NewInt(b))
	return result
}

// DivideInt128 performs numerator / denominator with rounding
func DivideInt128(numerator *big.Int, denominator int64, roundingMode RoundingMode) int64 {
	denom := big.NewInt(denominator)
	quotient := getInt128()
	remainder := getInt128()

	quotient.DivMod(numerator, denom, remainder)

	result := quotient.Int64()

	if roundingMode == RoundHalfEven {
		// Banker's rounding: if remainder == denominator/2, round to even
		half := big.NewInt(denominator / 2)
		cmp := remainder.Cmp(half)

		if cmp > 0 {
			result++
		} else if cmp == 0 && denominator%2 == 0 {
			if result%2 != 0 {
				result++
			}
		}
	}

	putInt128(quotient)
	putInt128(remainder)

	return result
}

type RoundingMode int

const (
	RoundHalfEven RoundingMode = iota // Banker's rounding
	RoundDown                         // Truncate (venue integer arithmetic)
)

// NativeValue converts a native-coin amount (native precision) into the
// reference currency at oracle precision, given the oracle rate expressed
// as reference units per whole native coin (oracle precision):
//
//	value = amount * rate / nativeScale
//
// Division truncates, matching the source venue's integer arithmetic.
func NativeValue(amount, rate int64) int64 {
	raw := MultiplyInt128(amount, rate)
	result := DivideInt128(raw, NativeConfig.Scale, RoundDown)
	putInt128(raw)
	return result
}

// OracleToSettlement rescales a reference-currency value from oracle
// precision (8 decimals) to settlement precision (6 decimals).
func OracleToSettlement(v int64) int64 {
	return v / DecimalFactor
}

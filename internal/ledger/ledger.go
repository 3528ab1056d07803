// Package ledger owns the per-user, per-asset balance map, the custody
// holdings it is reconciled against, and the two risk limits: the global
// bank cap (settlement precision) and the per-transaction withdrawal limit
// (oracle precision). All mutation happens under the engine's
// single-operation-at-a-time discipline; no internal locking.
package ledger

import (
	"context"
	"fmt"

	"VaultLedger/internal/asset"
	fpmath "VaultLedger/internal/math"
	"VaultLedger/internal/oracle"

	"github.com/google/uuid"
)

// BalanceKey identifies one user's balance in one asset.
type BalanceKey struct {
	User  uuid.UUID
	Asset asset.Asset
}

// Ledger tracks user balances and vault custody holdings.
//
// Balances are created implicitly (absent key reads as zero) and never
// destroyed; they persist at zero. The sum of balances per asset never
// exceeds the custody holding of that asset — enforced by the engine's
// operation ordering, not by the map itself.
type Ledger struct {
	balances map[BalanceKey]int64
	holdings map[asset.Asset]int64

	// Immutable after construction.
	bankCap     int64 // settlement precision (6 decimals)
	maxWithdraw int64 // oracle precision (8 decimals)
	settlement  asset.Asset

	// Replaceable by the admin, never nil after construction.
	oracle *oracle.Client

	depositCount  int64
	withdrawCount int64
}

// New creates a ledger. bankCap is denominated in the settlement asset's
// precision, maxWithdraw in the oracle's precision; the two domains are
// deliberately distinct and never normalized against each other.
func New(bankCap, maxWithdraw int64, settlement asset.Asset, oc *oracle.Client) *Ledger {
	if oc == nil {
		panic("ledger: nil oracle client")
	}
	return &Ledger{
		balances:    make(map[BalanceKey]int64),
		holdings:    make(map[asset.Asset]int64),
		bankCap:     bankCap,
		maxWithdraw: maxWithdraw,
		settlement:  settlement,
		oracle:      oc,
	}
}

// SetOracle swaps the price source handle.
func (l *Ledger) SetOracle(oc *oracle.Client) {
	if oc == nil {
		panic("ledger: nil oracle client")
	}
	l.oracle = oc
}

// Oracle returns the currently configured price source.
func (l *Ledger) Oracle() *oracle.Client {
	return l.oracle
}

// Settlement returns the settlement asset identifier.
func (l *Ledger) Settlement() asset.Asset {
	return l.settlement
}

// Balance returns the user's balance in the given asset (zero if absent).
func (l *Ledger) Balance(user uuid.UUID, a asset.Asset) int64 {
	return l.balances[BalanceKey{User: user, Asset: a}]
}

// Holding returns the vault's custody total for an asset.
func (l *Ledger) Holding(a asset.Asset) int64 {
	return l.holdings[a]
}

// RecordReceipt adds received value to the custody holding for an asset.
func (l *Ledger) RecordReceipt(a asset.Asset, amount int64) {
	l.holdings[a] += amount
}

// RecordPayout removes paid-out value from the custody holding for an asset.
func (l *Ledger) RecordPayout(a asset.Asset, amount int64) {
	l.holdings[a] -= amount
}

// TotalValueHeld prices the vault's custody holdings in the reference
// currency at settlement precision: native holdings converted via the
// oracle (with the documented decimal-factor rescale), plus settlement
// holdings taken at face value. Oracle failures propagate unchanged.
func (l *Ledger) TotalValueHeld(ctx context.Context) (int64, error) {
	total, _, err := l.Valuation(ctx)
	return total, err
}

// Valuation returns the total held value together with the oracle rate it
// was priced at. One oracle read serves both, so callers exporting the pair
// (the engine's gauges) see a consistent snapshot.
func (l *Ledger) Valuation(ctx context.Context) (total, rate int64, err error) {
	rate, err = l.oracle.CurrentRate(ctx)
	if err != nil {
		return 0, 0, err
	}

	nativeValue := fpmath.OracleToSettlement(fpmath.NativeValue(l.holdings[asset.Native], rate))
	return nativeValue + l.holdings[l.settlement], rate, nil
}

// CheckCapacity fails with ErrExceedBankCap when the currently held value
// plus pendingValue (settlement precision) would breach the bank cap.
// pendingValue is zero for value that is already reflected in holdings.
func (l *Ledger) CheckCapacity(ctx context.Context, pendingValue int64) error {
	total, err := l.TotalValueHeld(ctx)
	if err != nil {
		return err
	}
	if total+pendingValue > l.bankCap {
		return fmt.Errorf("%w: held=%d pending=%d cap=%d", ErrExceedBankCap, total, pendingValue, l.bankCap)
	}
	return nil
}

// CreditDeposit adds amount to the user's balance and bumps the deposit
// counter. Capacity is the caller's responsibility: the check runs before
// or after the credit depending on the asset kind's receipt ordering.
func (l *Ledger) CreditDeposit(user uuid.UUID, a asset.Asset, amount int64) {
	l.balances[BalanceKey{User: user, Asset: a}] += amount
	l.depositCount++
}

// DebitWithdraw runs the withdrawal checks and, on success, subtracts the
// amount and bumps the withdraw counter. The check-then-mutate sequence
// completes entirely before any external transfer.
//
// The limit check is asymmetric on purpose: native amounts are priced into
// the reference currency at oracle precision and compared against
// maxWithdraw there, while settlement amounts are compared against
// maxWithdraw directly in their own unit.
func (l *Ledger) DebitWithdraw(ctx context.Context, user uuid.UUID, a asset.Asset, amount int64) error {
	key := BalanceKey{User: user, Asset: a}
	balance := l.balances[key]
	if amount > balance {
		return fmt.Errorf("%w: have=%d want=%d", ErrInsufficientFunds, balance, amount)
	}

	if a.IsNative() {
		rate, err := l.oracle.CurrentRate(ctx)
		if err != nil {
			return err
		}
		value := fpmath.NativeValue(amount, rate)
		if value > l.maxWithdraw {
			return fmt.Errorf("%w: value=%d limit=%d", ErrExceedWithdrawAmount, value, l.maxWithdraw)
		}
	} else if amount > l.maxWithdraw {
		// Settlement amounts are reference currency by definition.
		return fmt.Errorf("%w: amount=%d limit=%d", ErrExceedWithdrawAmount, amount, l.maxWithdraw)
	}

	l.balances[key] = balance - amount
	l.withdrawCount++
	return nil
}

// DepositCount returns the number of successfully credited deposits.
func (l *Ledger) DepositCount() int64 {
	return l.depositCount
}

// WithdrawCount returns the number of successfully debited withdrawals.
func (l *Ledger) WithdrawCount() int64 {
	return l.withdrawCount
}

// Restore overwrites balances, holdings, and the lifetime counters from
// recovered state. Called once at startup, before the engine accepts
// operations.
func (l *Ledger) Restore(balances map[BalanceKey]int64, holdings map[asset.Asset]int64, deposits, withdrawals int64) {
	l.balances = make(map[BalanceKey]int64, len(balances))
	for k, v := range balances {
		l.balances[k] = v
	}
	l.holdings = make(map[asset.Asset]int64, len(holdings))
	for k, v := range holdings {
		l.holdings[k] = v
	}
	l.depositCount = deposits
	l.withdrawCount = withdrawals
}

// Snapshot returns a copy of all balances.
func (l *Ledger) Snapshot() map[BalanceKey]int64 {
	snapshot := make(map[BalanceKey]int64, len(l.balances))
	for k, v := range l.balances {
		snapshot[k] = v
	}
	return snapshot
}

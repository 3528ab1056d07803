package ledger

import "errors"

// Terminal failure kinds for deposit/withdraw operations. Every failure
// aborts the whole operation; there is no retry or partial application.
// The transport shell surfaces these to the end user.
var (
	// ErrNothingToDeposit rejects zero-amount deposits.
	ErrNothingToDeposit = errors.New("nothing to deposit")

	// ErrTokenInexistent rejects the null asset reference.
	ErrTokenInexistent = errors.New("token inexistent")

	// ErrSettlementMustBeDirect rejects the settlement asset on the
	// arbitrary-asset deposit path; it has its own direct path.
	ErrSettlementMustBeDirect = errors.New("settlement asset must be deposited directly")

	// ErrPathNotFound signals the conversion venue could not route the swap.
	ErrPathNotFound = errors.New("conversion path not found")

	// ErrExceedBankCap signals a global capacity breach.
	ErrExceedBankCap = errors.New("bank cap exceeded")

	// ErrInsufficientFunds signals a withdrawal above the user's balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrExceedWithdrawAmount signals a withdrawal above the per-transaction limit.
	ErrExceedWithdrawAmount = errors.New("withdraw amount exceeds per-transaction limit")

	// ErrNoReentrancy rejects a state-mutating operation entered while
	// another one holds the lock. Contention fails immediately, never queues.
	ErrNoReentrancy = errors.New("reentrant call rejected")

	// ErrTransferFailed signals the external value movement failed.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrUnauthorized rejects admin-only operations from non-admin callers.
	ErrUnauthorized = errors.New("unauthorized")
)

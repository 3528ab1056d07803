// Package engine orchestrates deposit and withdrawal operations against the
// ledger: request validation, the reentrancy guard, capacity and limit
// checks, the convert-then-credit flow for arbitrary assets, and domain
// event emission. It is single-threaded: each operation runs to completion
// before the next begins, fed by the ingestion shell.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"VaultLedger/internal/asset"
	"VaultLedger/internal/custody"
	"VaultLedger/internal/event"
	"VaultLedger/internal/exchange"
	"VaultLedger/internal/ledger"
	"VaultLedger/internal/observability"
	"VaultLedger/internal/oracle"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Output is one completed operation's event, handed to the persistence and
// projection workers.
type Output struct {
	Envelope *event.Envelope
	Event    event.Event
}

// Config wires the engine's collaborators.
type Config struct {
	Ledger  *ledger.Ledger
	Gateway *exchange.Gateway
	Tokens  custody.TokenTransferor
	Native  custody.NativeTransferor

	// VenueID is the spender identity the conversion venue draws approvals
	// against.
	VenueID string

	// Admin is the only identity allowed to call SetOracle.
	Admin uuid.UUID

	// ConversionDeadline bounds swaps on the external venue. Deliberately
	// generous; the venue enforces it, not the engine.
	ConversionDeadline time.Duration

	// StartSequence is the first sequence the engine will assign, set from
	// the operation log head on recovery.
	StartSequence int64

	Metrics *observability.Metrics
	Logger  zerolog.Logger

	// PersistChan receives every output with a blocking send: if the
	// persistence worker falls behind, the engine stalls so no event is lost.
	PersistChan chan<- Output

	// ProjectionChan receives outputs with a non-blocking send; drops are
	// recovered by rebuilding projections from the operation log.
	ProjectionChan chan<- Output
}

// Engine is the deposit/withdraw orchestrator.
type Engine struct {
	ledger  *ledger.Ledger
	gateway *exchange.Gateway
	tokens  custody.TokenTransferor
	native  custody.NativeTransferor

	venueID            string
	admin              uuid.UUID
	conversionDeadline time.Duration

	// Reentrancy flag. Held for the full span of a state-mutating operation,
	// external transfers included; a second entry fails immediately rather
	// than queue. A plain bool suffices under the single-operation
	// discipline — reentry happens on the same goroutine via transfer hooks.
	busy bool

	sequence int64
	now      func() time.Time

	metrics *observability.Metrics
	logger  zerolog.Logger

	persistChan    chan<- Output
	projectionChan chan<- Output
}

func New(cfg Config) *Engine {
	deadline := cfg.ConversionDeadline
	if deadline == 0 {
		deadline = 15 * time.Minute
	}

	return &Engine{
		ledger:             cfg.Ledger,
		gateway:            cfg.Gateway,
		tokens:             cfg.Tokens,
		native:             cfg.Native,
		venueID:            cfg.VenueID,
		admin:              cfg.Admin,
		conversionDeadline: deadline,
		sequence:           cfg.StartSequence,
		now:                time.Now,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger,
		persistChan:        cfg.PersistChan,
		projectionChan:     cfg.ProjectionChan,
	}
}

func (e *Engine) enter() error {
	if e.busy {
		return ledger.ErrNoReentrancy
	}
	e.busy = true
	return nil
}

func (e *Engine) exit() {
	e.busy = false
}

// DepositNative credits a native-coin deposit. The native value is assumed
// already received into custody by the calling transport before this logic
// runs, so the capacity check runs against the post-receipt total with no
// pending addition. That ordering is inherited from the source system and
// preserved on purpose.
func (e *Engine) DepositNative(ctx context.Context, opID, user uuid.UUID, amount int64) error {
	start := e.now()

	if err := e.enter(); err != nil {
		return e.reject("deposit_native", err)
	}
	defer e.exit()

	if amount == 0 {
		return e.reject("deposit_native", ledger.ErrNothingToDeposit)
	}

	e.ledger.RecordReceipt(asset.Native, amount)

	if err := e.ledger.CheckCapacity(ctx, 0); err != nil {
		// Abort returns the received value to the caller.
		e.ledger.RecordPayout(asset.Native, amount)
		return e.reject("deposit_native", err)
	}

	e.ledger.CreditDeposit(user, asset.Native, amount)

	e.emit(&event.Deposit{OperationID: opID, User: user, Asset: asset.Native, Amount: amount})
	e.applied(ctx, "deposit_native", start)
	e.logger.Info().
		Str("user", user.String()).
		Int64("amount", amount).
		Msg("native deposit credited")
	return nil
}

// DepositSettlement credits a settlement-asset deposit and then pulls the
// amount from the caller into custody. Capacity is checked before the pull
// (the amount is not yet held), and the pull runs after the state credit —
// the source system's ordering, preserved; a pull failure after the credit
// leaves the ledger overstated relative to custody.
func (e *Engine) DepositSettlement(ctx context.Context, opID, user uuid.UUID, amount int64) error {
	start := e.now()

	if err := e.enter(); err != nil {
		return e.reject("deposit_settlement", err)
	}
	defer e.exit()

	if amount == 0 {
		return e.reject("deposit_settlement", ledger.ErrNothingToDeposit)
	}

	if err := e.ledger.CheckCapacity(ctx, amount); err != nil {
		return e.reject("deposit_settlement", err)
	}

	settlement := e.ledger.Settlement()
	e.ledger.CreditDeposit(user, settlement, amount)
	e.emit(&event.Deposit{OperationID: opID, User: user, Asset: settlement, Amount: amount})

	if err := e.tokens.TransferFrom(ctx, settlement, user, amount); err != nil {
		return e.reject("deposit_settlement",
			fmt.Errorf("%w: pull %d %s: %v", ledger.ErrTransferFailed, amount, settlement, err))
	}
	e.ledger.RecordReceipt(settlement, amount)

	e.applied(ctx, "deposit_settlement", start)
	e.logger.Info().
		Str("user", user.String()).
		Int64("amount", amount).
		Msg("settlement deposit credited")
	return nil
}

// DepositOther pulls an arbitrary asset from the caller, converts it to the
// settlement asset on the external venue, and credits the actual conversion
// output. The capacity check uses the actual output, never the estimate.
func (e *Engine) DepositOther(ctx context.Context, opID, user uuid.UUID, assetIn asset.Asset, amount int64) error {
	start := e.now()

	if err := e.enter(); err != nil {
		return e.reject("deposit_other", err)
	}
	defer e.exit()

	if amount == 0 {
		return e.reject("deposit_other", ledger.ErrNothingToDeposit)
	}
	if assetIn.IsZero() {
		return e.reject("deposit_other", ledger.ErrTokenInexistent)
	}
	settlement := e.ledger.Settlement()
	if assetIn == settlement {
		return e.reject("deposit_other", ledger.ErrSettlementMustBeDirect)
	}

	if err := e.tokens.TransferFrom(ctx, assetIn, user, amount); err != nil {
		return e.reject("deposit_other",
			fmt.Errorf("%w: pull %d %s: %v", ledger.ErrTransferFailed, amount, assetIn, err))
	}
	if err := e.tokens.Approve(ctx, assetIn, e.venueID, amount); err != nil {
		return e.reject("deposit_other",
			fmt.Errorf("%w: approve %s for %d %s: %v", ledger.ErrTransferFailed, e.venueID, amount, assetIn, err))
	}

	// No minimum output; the venue's own routing decides the price.
	result := e.gateway.Convert(ctx, amount, 0, assetIn, settlement, user, e.now().Add(e.conversionDeadline))
	if !result.OK {
		if e.metrics != nil {
			e.metrics.ConversionFailures.Inc()
		}
		return e.reject("deposit_other",
			fmt.Errorf("%w: %s -> %s", ledger.ErrPathNotFound, assetIn, settlement))
	}
	if e.metrics != nil {
		e.metrics.Conversions.Inc()
	}

	actualOut := result.Output()

	if err := e.ledger.CheckCapacity(ctx, actualOut); err != nil {
		return e.reject("deposit_other", err)
	}

	e.ledger.CreditDeposit(user, settlement, actualOut)
	e.emit(&event.Deposit{OperationID: opID, User: user, Asset: settlement, Amount: actualOut})

	// Mirrors the direct settlement path: the conversion paid the caller,
	// and the output is pulled into custody after the credit.
	if err := e.tokens.TransferFrom(ctx, settlement, user, actualOut); err != nil {
		return e.reject("deposit_other",
			fmt.Errorf("%w: pull %d %s: %v", ledger.ErrTransferFailed, actualOut, settlement, err))
	}
	e.ledger.RecordReceipt(settlement, actualOut)

	e.applied(ctx, "deposit_other", start)
	e.logger.Info().
		Str("user", user.String()).
		Str("asset_in", assetIn.String()).
		Int64("amount_in", amount).
		Int64("credited", actualOut).
		Msg("converted deposit credited")
	return nil
}

// WithdrawNative debits a native-coin withdrawal and pays it out. Checks,
// mutation, counter, and event emission all complete before the external
// transfer; a transfer failure is reported but the debit is not rolled back.
func (e *Engine) WithdrawNative(ctx context.Context, opID, user uuid.UUID, amount int64) error {
	return e.withdraw(ctx, "withdraw_native", opID, user, asset.Native, amount)
}

// WithdrawSettlement debits a settlement-asset withdrawal and pays it out.
func (e *Engine) WithdrawSettlement(ctx context.Context, opID, user uuid.UUID, amount int64) error {
	return e.withdraw(ctx, "withdraw_settlement", opID, user, e.ledger.Settlement(), amount)
}

func (e *Engine) withdraw(ctx context.Context, opType string, opID, user uuid.UUID, a asset.Asset, amount int64) error {
	start := e.now()

	if err := e.enter(); err != nil {
		return e.reject(opType, err)
	}
	defer e.exit()

	if err := e.ledger.DebitWithdraw(ctx, user, a, amount); err != nil {
		return e.reject(opType, err)
	}

	// Effects are complete here; only the external payout remains.
	e.emit(&event.Withdraw{OperationID: opID, User: user, Asset: a, Amount: amount})

	var transferErr error
	if a.IsNative() {
		transferErr = e.native.Send(ctx, user, amount)
	} else {
		transferErr = e.tokens.Transfer(ctx, a, user, amount)
	}
	if transferErr != nil {
		// State is already mutated; custody did not move.
		return e.reject(opType,
			fmt.Errorf("%w: pay out %d %s: %v", ledger.ErrTransferFailed, amount, a, transferErr))
	}
	e.ledger.RecordPayout(a, amount)

	e.applied(ctx, opType, start)
	e.logger.Info().
		Str("user", user.String()).
		Str("asset", a.String()).
		Int64("amount", amount).
		Msg("withdrawal paid out")
	return nil
}

// SetOracle swaps the ledger's price source. Admin-only; no other validation.
func (e *Engine) SetOracle(caller uuid.UUID, opID uuid.UUID, oc *oracle.Client) error {
	if caller != e.admin {
		return e.reject("set_oracle", fmt.Errorf("%w: caller %s is not the admin", ledger.ErrUnauthorized, caller))
	}

	e.ledger.SetOracle(oc)
	e.emit(&event.OracleUpdated{OperationID: opID, Feed: oc.Description()})

	if e.metrics != nil {
		e.metrics.OpsApplied.WithLabelValues("set_oracle").Inc()
	}
	e.logger.Info().Str("feed", oc.Description()).Msg("oracle replaced")
	return nil
}

// Ledger exposes the underlying ledger for read-side consumers.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Sequence returns the next sequence the engine will assign.
func (e *Engine) Sequence() int64 {
	return e.sequence
}

func (e *Engine) emit(evt event.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		// Events are plain structs; this cannot fail for well-formed input.
		e.logger.Error().Err(err).Msg("marshal event payload")
	}

	output := Output{
		Envelope: &event.Envelope{
			Sequence:       e.sequence,
			IdempotencyKey: evt.IdempotencyKey(),
			EventType:      evt.Type(),
			Timestamp:      e.now(),
			Payload:        payload,
		},
		Event: evt,
	}
	e.sequence++

	// Persistence: blocking send — the engine stalls until the worker
	// drains, so no event is lost.
	if e.persistChan != nil {
		e.persistChan <- output
	}

	// Projections: non-blocking send with drop; rebuilt from the log.
	if e.projectionChan != nil {
		select {
		case e.projectionChan <- output:
		default:
			if e.metrics != nil {
				e.metrics.ProjectionDrops.Inc()
			}
		}
	}
}

func (e *Engine) applied(ctx context.Context, opType string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.OpsApplied.WithLabelValues(opType).Inc()
	e.metrics.OpDuration.WithLabelValues(opType).Observe(time.Since(start).Seconds())
	switch opType {
	case "deposit_native", "deposit_settlement", "deposit_other":
		e.metrics.Deposits.Inc()
	case "withdraw_native", "withdraw_settlement":
		e.metrics.Withdrawals.Inc()
	}

	// Best effort: the operation already succeeded, a failed read here only
	// leaves the gauges at their previous values.
	if total, rate, err := e.ledger.Valuation(ctx); err == nil {
		e.metrics.TotalValueHeld.Set(float64(total))
		e.metrics.OracleRate.Set(float64(rate))
	}
}

func (e *Engine) reject(opType string, err error) error {
	if e.metrics != nil {
		reason := rejectReason(err)
		e.metrics.OpsRejected.WithLabelValues(opType, reason).Inc()
		switch reason {
		case "oracle_compromised", "stale_price":
			e.metrics.OracleFailures.WithLabelValues(reason).Inc()
		}
	}
	return err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNothingToDeposit):
		return "nothing_to_deposit"
	case errors.Is(err, ledger.ErrTokenInexistent):
		return "token_inexistent"
	case errors.Is(err, ledger.ErrSettlementMustBeDirect):
		return "settlement_direct_only"
	case errors.Is(err, ledger.ErrPathNotFound):
		return "path_not_found"
	case errors.Is(err, ledger.ErrExceedBankCap):
		return "exceed_bank_cap"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrExceedWithdrawAmount):
		return "exceed_withdraw_amount"
	case errors.Is(err, ledger.ErrNoReentrancy):
		return "reentrancy"
	case errors.Is(err, ledger.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ledger.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, oracle.ErrOracleCompromised):
		return "oracle_compromised"
	case errors.Is(err, oracle.ErrStalePrice):
		return "stale_price"
	default:
		return "other"
	}
}

package ingestion

import (
	"context"

	"VaultLedger/internal/engine"
	"VaultLedger/internal/observability"
	"VaultLedger/internal/oracle"

	"github.com/rs/zerolog"
)

// FeedResolver turns a feed address from a SetOracle request into a
// usable price feed.
type FeedResolver func(addr string) (oracle.PriceFeed, error)

// Dispatcher drains the operation channel and drives the engine. It is the
// single goroutine allowed to invoke state-mutating engine operations, which
// is what makes the engine's no-interleaving assumption hold.
type Dispatcher struct {
	engine      *engine.Engine
	idempotency *IdempotencyChecker
	resolveFeed FeedResolver
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

func NewDispatcher(
	eng *engine.Engine,
	idempotency *IdempotencyChecker,
	resolveFeed FeedResolver,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		engine:      eng,
		idempotency: idempotency,
		resolveFeed: resolveFeed,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run processes operations until ctx is cancelled or opChan closes.
func (d *Dispatcher) Run(ctx context.Context, opChan <-chan RawOp) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-opChan:
			if !ok {
				return nil
			}
			d.handle(ctx, raw)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, raw RawOp) {
	if d.metrics != nil {
		d.metrics.OpsIngested.WithLabelValues(raw.OpType).Inc()
	}

	req, err := ParseRawOp(raw)
	if err != nil {
		// Malformed requests never become valid on redelivery.
		d.logger.Warn().Err(err).Str("subject", raw.Subject).Msg("dropping malformed operation")
		raw.AckFunc()
		return
	}

	opID := req.OperationID().String()
	if d.idempotency.IsDuplicate(req.OpType(), opID) {
		raw.AckFunc()
		return
	}

	opErr := d.dispatch(ctx, req)
	if opErr != nil {
		// All operation failures are terminal: no retry, no partial
		// application. The failure is surfaced, not redelivered.
		d.logger.Warn().
			Err(opErr).
			Str("op_type", req.OpType()).
			Str("operation_id", opID).
			Msg("operation rejected")
		raw.AckFunc()
		return
	}

	d.idempotency.MarkProcessed(req.OpType(), opID)
	raw.AckFunc()
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) error {
	switch r := req.(type) {
	case *DepositNativeRequest:
		return d.engine.DepositNative(ctx, r.OpID, r.UserID, r.Amount)
	case *DepositSettlementRequest:
		return d.engine.DepositSettlement(ctx, r.OpID, r.UserID, r.Amount)
	case *DepositOtherRequest:
		return d.engine.DepositOther(ctx, r.OpID, r.UserID, r.AssetIn, r.Amount)
	case *WithdrawNativeRequest:
		return d.engine.WithdrawNative(ctx, r.OpID, r.UserID, r.Amount)
	case *WithdrawSettlementRequest:
		return d.engine.WithdrawSettlement(ctx, r.OpID, r.UserID, r.Amount)
	case *SetOracleRequest:
		feed, err := d.resolveFeed(r.Feed)
		if err != nil {
			return err
		}
		return d.engine.SetOracle(r.CallerID, r.OpID, oracle.NewClient(feed))
	default:
		// ParseRawOp only produces the types above.
		d.logger.Error().Str("op_type", req.OpType()).Msg("unhandled request type")
		return nil
	}
}

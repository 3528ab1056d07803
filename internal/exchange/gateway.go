package exchange

import (
	"context"
	"time"

	"VaultLedger/internal/asset"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Router is the external venue's exact-input swap primitive: swap amountIn
// of path[0] for at least amountOutMin of the final path element, sending
// the output to recipient. It returns the per-hop amounts, the last element
// being the actual output received.
type Router interface {
	SwapExactInput(
		ctx context.Context,
		amountIn, amountOutMin int64,
		path []asset.Asset,
		recipient uuid.UUID,
		deadline time.Time,
	) ([]int64, error)
}

// Result is a normalized conversion outcome. A failed conversion carries
// no amounts; callers decide how to surface it.
type Result struct {
	OK      bool
	Amounts []int64 // per-hop amounts; last element is actual output
}

// Output returns the actual output amount received, zero for failures.
// Downstream capacity checks must use this, never the estimated input value.
func (r Result) Output() int64 {
	if !r.OK || len(r.Amounts) == 0 {
		return 0
	}
	return r.Amounts[len(r.Amounts)-1]
}

// Gateway wraps the external exchange and normalizes its failures.
// Router errors (no liquidity path, deadline exceeded, output below minimum)
// never propagate out of Convert; they all collapse into a failed Result.
type Gateway struct {
	router Router
	logger zerolog.Logger
}

func NewGateway(router Router, logger zerolog.Logger) *Gateway {
	return &Gateway{
		router: router,
		logger: logger,
	}
}

// Convert attempts a two-hop swap assetIn -> assetOut on the external venue.
func (g *Gateway) Convert(
	ctx context.Context,
	amountIn, minAmountOut int64,
	assetIn, assetOut asset.Asset,
	recipient uuid.UUID,
	deadline time.Time,
) Result {
	amounts, err := g.router.SwapExactInput(
		ctx,
		amountIn,
		minAmountOut,
		[]asset.Asset{assetIn, assetOut},
		recipient,
		deadline,
	)
	if err != nil {
		g.logger.Warn().
			Err(err).
			Str("asset_in", assetIn.String()).
			Str("asset_out", assetOut.String()).
			Int64("amount_in", amountIn).
			Msg("conversion failed")
		return Result{OK: false}
	}

	return Result{OK: true, Amounts: amounts}
}

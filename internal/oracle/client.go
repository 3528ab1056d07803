package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Heartbeat is the maximum tolerated age of a price answer. Answers older
// than this are rejected as stale regardless of round consistency.
const Heartbeat = 3600 * time.Second

var (
	// ErrOracleCompromised signals a non-positive price from the feed.
	ErrOracleCompromised = errors.New("oracle compromised")

	// ErrStalePrice signals an answer older than the heartbeat or a
	// round-consistency violation.
	ErrStalePrice = errors.New("stale price")
)

// Round is the raw latest-round tuple from the external price feed.
// Round identifiers are u80-range values upstream, so they are carried
// as big integers.
type Round struct {
	RoundID         *big.Int
	Price           *big.Int // signed; reference units per native coin, oracle precision
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound *big.Int
}

// PriceFeed is the external price source consumed by the client.
type PriceFeed interface {
	LatestRound(ctx context.Context) (Round, error)
	Description() string
}

// Client wraps a PriceFeed and applies freshness and consistency validation
// before handing a rate to the ledger. It performs a pure read: no state
// is mutated on either success or failure.
type Client struct {
	feed      PriceFeed
	heartbeat time.Duration
	now       func() time.Time
}

func NewClient(feed PriceFeed) *Client {
	return &Client{
		feed:      feed,
		heartbeat: Heartbeat,
		now:       time.Now,
	}
}

// NewClientWithClock creates a client with an injected clock and heartbeat.
// Used by tests to pin the staleness boundary.
func NewClientWithClock(feed PriceFeed, heartbeat time.Duration, now func() time.Time) *Client {
	return &Client{
		feed:      feed,
		heartbeat: heartbeat,
		now:       now,
	}
}

// Description returns the underlying feed's self-description.
func (c *Client) Description() string {
	return c.feed.Description()
}

// CurrentRate fetches the latest round and returns the price as an unsigned
// magnitude at oracle precision. Validation runs in a fixed order, first
// failure wins: non-positive price, then heartbeat, then round consistency.
func (c *Client) CurrentRate(ctx context.Context) (int64, error) {
	round, err := c.feed.LatestRound(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest round: %w", err)
	}

	if round.Price == nil || round.Price.Sign() <= 0 {
		return 0, fmt.Errorf("%w: non-positive answer from %s", ErrOracleCompromised, c.feed.Description())
	}

	if age := c.now().Sub(round.UpdatedAt); age > c.heartbeat {
		return 0, fmt.Errorf("%w: answer is %s old (heartbeat %s)", ErrStalePrice, age, c.heartbeat)
	}

	if round.AnsweredInRound != nil && round.RoundID != nil &&
		round.AnsweredInRound.Cmp(round.RoundID) < 0 {
		return 0, fmt.Errorf("%w: answered in round %s < requested round %s",
			ErrStalePrice, round.AnsweredInRound, round.RoundID)
	}

	return round.Price.Int64(), nil
}

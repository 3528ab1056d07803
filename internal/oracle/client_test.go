package oracle_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"VaultLedger/internal/oracle"
)

type staticFeed struct {
	round oracle.Round
	err   error
}

func (f *staticFeed) LatestRound(ctx context.Context) (oracle.Round, error) {
	return f.round, f.err
}

func (f *staticFeed) Description() string { return "static test feed" }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// ============================================================================
// Test: CurrentRate validation order
// ============================================================================

func TestCurrentRate_HappyPath(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := &staticFeed{round: oracle.Round{
		RoundID:         big.NewInt(100),
		Price:           big.NewInt(2000_00000000),
		UpdatedAt:       now.Add(-time.Minute),
		AnsweredInRound: big.NewInt(100),
	}}

	client := oracle.NewClientWithClock(feed, oracle.Heartbeat, fixedClock(now))

	rate, err := client.CurrentRate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 2000_00000000 {
		t.Errorf("rate = %d, want %d", rate, int64(2000_00000000))
	}
}

func TestCurrentRate_NonPositivePriceIsCompromised(t *testing.T) {
	now := time.Now()
	for _, price := range []int64{0, -1} {
		feed := &staticFeed{round: oracle.Round{
			RoundID:         big.NewInt(1),
			Price:           big.NewInt(price),
			UpdatedAt:       now,
			AnsweredInRound: big.NewInt(1),
		}}
		client := oracle.NewClientWithClock(feed, oracle.Heartbeat, fixedClock(now))

		_, err := client.CurrentRate(context.Background())
		if !errors.Is(err, oracle.ErrOracleCompromised) {
			t.Errorf("price %d: got %v, want ErrOracleCompromised", price, err)
		}
	}
}

func TestCurrentRate_CompromisedBeatsStale(t *testing.T) {
	// A non-positive price on an ancient answer must report compromised,
	// not stale: the price check runs first.
	now := time.Now()
	feed := &staticFeed{round: oracle.Round{
		RoundID:         big.NewInt(5),
		Price:           big.NewInt(0),
		UpdatedAt:       now.Add(-48 * time.Hour),
		AnsweredInRound: big.NewInt(1),
	}}
	client := oracle.NewClientWithClock(feed, oracle.Heartbeat, fixedClock(now))

	_, err := client.CurrentRate(context.Background())
	if !errors.Is(err, oracle.ErrOracleCompromised) {
		t.Errorf("got %v, want ErrOracleCompromised", err)
	}
}

func TestCurrentRate_StalenessBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		updatedAt time.Time
		wantStale bool
	}{
		{"one second past heartbeat", now.Add(-oracle.Heartbeat - time.Second), true},
		{"exactly at heartbeat", now.Add(-oracle.Heartbeat), false},
		{"one second inside heartbeat", now.Add(-oracle.Heartbeat + time.Second), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feed := &staticFeed{round: oracle.Round{
				RoundID:         big.NewInt(1),
				Price:           big.NewInt(1),
				UpdatedAt:       tc.updatedAt,
				AnsweredInRound: big.NewInt(1),
			}}
			client := oracle.NewClientWithClock(feed, oracle.Heartbeat, fixedClock(now))

			_, err := client.CurrentRate(context.Background())
			if tc.wantStale {
				if !errors.Is(err, oracle.ErrStalePrice) {
					t.Errorf("got %v, want ErrStalePrice", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCurrentRate_RoundConsistency(t *testing.T) {
	// An answer carried over from an earlier round is stale even when fresh
	// by timestamp.
	now := time.Now()
	feed := &staticFeed{round: oracle.Round{
		RoundID:         big.NewInt(10),
		Price:           big.NewInt(1500_00000000),
		UpdatedAt:       now,
		AnsweredInRound: big.NewInt(9),
	}}
	client := oracle.NewClientWithClock(feed, oracle.Heartbeat, fixedClock(now))

	_, err := client.CurrentRate(context.Background())
	if !errors.Is(err, oracle.ErrStalePrice) {
		t.Errorf("got %v, want ErrStalePrice", err)
	}
}

func TestCurrentRate_FeedErrorPropagates(t *testing.T) {
	feedErr := errors.New("connection refused")
	client := oracle.NewClient(&staticFeed{err: feedErr})

	_, err := client.CurrentRate(context.Background())
	if !errors.Is(err, feedErr) {
		t.Errorf("got %v, want wrapped feed error", err)
	}
}

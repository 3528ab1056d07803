package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// HTTPFeed reads the latest round from a price-feed service over HTTP.
// The wire format mirrors the feed's latestRoundData tuple.
type HTTPFeed struct {
	url    string
	client *http.Client
}

type roundJSON struct {
	RoundID         string `json:"round_id"`
	Price           string `json:"price"`
	StartedAt       int64  `json:"started_at"`
	UpdatedAt       int64  `json:"updated_at"`
	AnsweredInRound string `json:"answered_in_round"`
}

func NewHTTPFeed(url string) *HTTPFeed {
	return &HTTPFeed{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *HTTPFeed) Description() string {
	return f.url
}

func (f *HTTPFeed) LatestRound(ctx context.Context) (Round, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Round{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Round{}, fmt.Errorf("fetch round: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Round{}, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var j roundJSON
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return Round{}, fmt.Errorf("decode round: %w", err)
	}

	roundID, ok := new(big.Int).SetString(j.RoundID, 10)
	if !ok {
		return Round{}, fmt.Errorf("bad round_id %q", j.RoundID)
	}
	price, ok := new(big.Int).SetString(j.Price, 10)
	if !ok {
		return Round{}, fmt.Errorf("bad price %q", j.Price)
	}
	answeredIn, ok := new(big.Int).SetString(j.AnsweredInRound, 10)
	if !ok {
		return Round{}, fmt.Errorf("bad answered_in_round %q", j.AnsweredInRound)
	}

	return Round{
		RoundID:         roundID,
		Price:           price,
		StartedAt:       time.Unix(j.StartedAt, 0),
		UpdatedAt:       time.Unix(j.UpdatedAt, 0),
		AnsweredInRound: answeredIn,
	}, nil
}

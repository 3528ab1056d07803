package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"VaultLedger/internal/asset"

	"github.com/google/uuid"
)

// HTTPRouter executes swaps against an exchange venue over HTTP.
type HTTPRouter struct {
	url    string
	client *http.Client
}

type swapRequestJSON struct {
	AmountIn     int64    `json:"amount_in"`
	AmountOutMin int64    `json:"amount_out_min"`
	Path         []string `json:"path"`
	Recipient    string   `json:"recipient"`
	DeadlineUnix int64    `json:"deadline"`
}

type swapResponseJSON struct {
	Amounts []int64 `json:"amounts"`
	Error   string  `json:"error,omitempty"`
}

func NewHTTPRouter(url string) *HTTPRouter {
	return &HTTPRouter{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPRouter) SwapExactInput(
	ctx context.Context,
	amountIn, amountOutMin int64,
	path []asset.Asset,
	recipient uuid.UUID,
	deadline time.Time,
) ([]int64, error) {
	pathStr := make([]string, len(path))
	for i, a := range path {
		pathStr[i] = string(a)
	}

	body, err := json.Marshal(swapRequestJSON{
		AmountIn:     amountIn,
		AmountOutMin: amountOutMin,
		Path:         pathStr,
		Recipient:    recipient.String(),
		DeadlineUnix: deadline.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute swap: %w", err)
	}
	defer resp.Body.Close()

	var j swapResponseJSON
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || j.Error != "" {
		return nil, fmt.Errorf("venue rejected swap (status %d): %s", resp.StatusCode, j.Error)
	}

	if len(j.Amounts) < 2 {
		return nil, fmt.Errorf("venue returned %d hop amounts, want >= 2", len(j.Amounts))
	}

	return j.Amounts, nil
}

package custody

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

// HTTPClient executes transfers against the custody service over HTTP.
// It implements both TokenTransferor and NativeTransferor.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type transferJSON struct {
	Asset     string `json:"asset,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Spender   string `json:"spender,omitempty"`
	Amount    int64  `json:"amount"`
}

func (c *HTTPClient) Transfer(ctx context.Context, a asset.Asset, recipient uuid.UUID, amount int64) error {
	return c.post(ctx, "/v1/transfer", transferJSON{
		Asset:     string(a),
		Recipient: recipient.String(),
		Amount:    amount,
	})
}

func (c *HTTPClient) TransferFrom(ctx context.Context, a asset.Asset, owner uuid.UUID, amount int64) error {
	return c.post(ctx, "/v1/transfer-from", transferJSON{
		Asset:  string(a),
		Owner:  owner.String(),
		Amount: amount,
	})
}

func (c *HTTPClient) Approve(ctx context.Context, a asset.Asset, spender string, amount int64) error {
	return c.post(ctx, "/v1/approve", transferJSON{
		Asset:   string(a),
		Spender: spender,
		Amount:  amount,
	})
}

func (c *HTTPClient) Send(ctx context.Context, recipient uuid.UUID, amount int64) error {
	return c.post(ctx, "/v1/send-native", transferJSON{
		Recipient: recipient.String(),
		Amount:    amount,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload transferJSON) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("custody call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("custody call %s: status %d", path, resp.StatusCode)
	}
	return nil
}

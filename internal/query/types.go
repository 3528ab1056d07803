package query

import "github.com/google/uuid"

// BalanceResponse represents a user's balance in one asset for API queries.
type BalanceResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Asset        string    `json:"asset"`
	Balance      int64     `json:"balance"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// HistoryEntry represents a single applied operation for API queries.
type HistoryEntry struct {
	Sequence       int64  `json:"sequence"`
	EventType      string `json:"event_type"`
	IdempotencyKey string `json:"idempotency_key"`
	Asset          string `json:"asset"`
	Amount         int64  `json:"amount"`
	Timestamp      int64  `json:"timestamp"`
}

// VaultSummary reports aggregate custody totals per asset.
type VaultSummary struct {
	Holdings     map[string]int64 `json:"holdings"`
	AsOfSequence int64            `json:"as_of_sequence"`
}

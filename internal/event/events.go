package event

import (
	"VaultLedger/internal/asset"

	"github.com/google/uuid"
)

// Type discriminator for domain events
type Type int32

const (
	TypeUnknown Type = iota
	TypeDeposit
	TypeWithdraw
	TypeOracleUpdated
)

func (t Type) String() string {
	switch t {
	case TypeDeposit:
		return "Deposit"
	case TypeWithdraw:
		return "Withdraw"
	case TypeOracleUpdated:
		return "OracleUpdated"
	default:
		return "Unknown"
	}
}

// Event is the interface all domain events implement
type Event interface {
	// IdempotencyKey returns the stable dedup key
	IdempotencyKey() string

	// Type returns the discriminator
	Type() Type
}

// Deposit is emitted once per successfully credited deposit.
type Deposit struct {
	OperationID uuid.UUID   `json:"operation_id"`
	User        uuid.UUID   `json:"user"`
	Asset       asset.Asset `json:"asset"`
	Amount      int64       `json:"amount"`
}

func (d *Deposit) IdempotencyKey() string {
	return d.OperationID.String()
}

func (d *Deposit) Type() Type {
	return TypeDeposit
}

// Withdraw is emitted once per successfully debited withdrawal, before the
// external transfer runs.
type Withdraw struct {
	OperationID uuid.UUID   `json:"operation_id"`
	User        uuid.UUID   `json:"user"`
	Asset       asset.Asset `json:"asset"`
	Amount      int64       `json:"amount"`
}

func (w *Withdraw) IdempotencyKey() string {
	return w.OperationID.String()
}

func (w *Withdraw) Type() Type {
	return TypeWithdraw
}

// OracleUpdated is emitted when the admin swaps the price source.
type OracleUpdated struct {
	OperationID uuid.UUID `json:"operation_id"`
	Feed        string    `json:"feed"`
}

func (o *OracleUpdated) IdempotencyKey() string {
	return o.OperationID.String()
}

func (o *OracleUpdated) Type() Type {
	return TypeOracleUpdated
}

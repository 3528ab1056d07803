package ingestion

import (
	"encoding/json"
	"fmt"

	"VaultLedger/internal/asset"

	"github.com/google/uuid"
)

// Operation type identifiers, one per subject.
const (
	OpDepositNative      = "DepositNative"
	OpDepositSettlement  = "DepositSettlement"
	OpDepositOther       = "DepositOther"
	OpWithdrawNative     = "WithdrawNative"
	OpWithdrawSettlement = "WithdrawSettlement"
	OpSetOracle          = "SetOracle"
)

// Request is a parsed, typed operation request.
type Request interface {
	// OperationID returns the stable dedup key for the request.
	OperationID() uuid.UUID

	// OpType returns the operation type identifier.
	OpType() string
}

type DepositNativeRequest struct {
	OpID   uuid.UUID
	UserID uuid.UUID
	Amount int64
}

func (r *DepositNativeRequest) OperationID() uuid.UUID { return r.OpID }
func (r *DepositNativeRequest) OpType() string         { return OpDepositNative }

type DepositSettlementRequest struct {
	OpID   uuid.UUID
	UserID uuid.UUID
	Amount int64
}

func (r *DepositSettlementRequest) OperationID() uuid.UUID { return r.OpID }
func (r *DepositSettlementRequest) OpType() string         { return OpDepositSettlement }

type DepositOtherRequest struct {
	OpID    uuid.UUID
	UserID  uuid.UUID
	AssetIn asset.Asset
	Amount  int64
}

func (r *DepositOtherRequest) OperationID() uuid.UUID { return r.OpID }
func (r *DepositOtherRequest) OpType() string         { return OpDepositOther }

type WithdrawNativeRequest struct {
	OpID   uuid.UUID
	UserID uuid.UUID
	Amount int64
}

func (r *WithdrawNativeRequest) OperationID() uuid.UUID { return r.OpID }
func (r *WithdrawNativeRequest) OpType() string         { return OpWithdrawNative }

type WithdrawSettlementRequest struct {
	OpID   uuid.UUID
	UserID uuid.UUID
	Amount int64
}

func (r *WithdrawSettlementRequest) OperationID() uuid.UUID { return r.OpID }
func (r *WithdrawSettlementRequest) OpType() string         { return OpWithdrawSettlement }

type SetOracleRequest struct {
	OpID     uuid.UUID
	CallerID uuid.UUID
	Feed     string
}

func (r *SetOracleRequest) OperationID() uuid.UUID { return r.OpID }
func (r *SetOracleRequest) OpType() string         { return OpSetOracle }

// ParseRawOp converts a RawOp (JSON bytes + operation type) into a typed
// Request. The shell validates and converts before the engine runs.
func ParseRawOp(raw RawOp) (Request, error) {
	switch raw.OpType {
	case OpDepositNative:
		return parseAmountOp(raw.Data, raw.OpType, func(op, user uuid.UUID, amount int64) Request {
			return &DepositNativeRequest{OpID: op, UserID: user, Amount: amount}
		})
	case OpDepositSettlement:
		return parseAmountOp(raw.Data, raw.OpType, func(op, user uuid.UUID, amount int64) Request {
			return &DepositSettlementRequest{OpID: op, UserID: user, Amount: amount}
		})
	case OpDepositOther:
		return parseDepositOther(raw.Data)
	case OpWithdrawNative:
		return parseAmountOp(raw.Data, raw.OpType, func(op, user uuid.UUID, amount int64) Request {
			return &WithdrawNativeRequest{OpID: op, UserID: user, Amount: amount}
		})
	case OpWithdrawSettlement:
		return parseAmountOp(raw.Data, raw.OpType, func(op, user uuid.UUID, amount int64) Request {
			return &WithdrawSettlementRequest{OpID: op, UserID: user, Amount: amount}
		})
	case OpSetOracle:
		return parseSetOracle(raw.Data)
	default:
		return nil, fmt.Errorf("unknown operation type: %s", raw.OpType)
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match upstream producers.

type amountOpJSON struct {
	OperationID string `json:"operation_id"`
	UserID      string `json:"user_id"`
	Amount      int64  `json:"amount"`
}

func parseAmountOp(data []byte, opType string, build func(op, user uuid.UUID, amount int64) Request) (Request, error) {
	var j amountOpJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse %s: %w", opType, err)
	}

	opID, err := uuid.Parse(j.OperationID)
	if err != nil {
		return nil, fmt.Errorf("parse operation_id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	if j.Amount < 0 {
		return nil, fmt.Errorf("negative amount: %d", j.Amount)
	}

	return build(opID, userID, j.Amount), nil
}

type depositOtherJSON struct {
	OperationID string `json:"operation_id"`
	UserID      string `json:"user_id"`
	AssetIn     string `json:"asset_in"`
	Amount      int64  `json:"amount"`
}

func parseDepositOther(data []byte) (Request, error) {
	var j depositOtherJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse DepositOther: %w", err)
	}

	opID, err := uuid.Parse(j.OperationID)
	if err != nil {
		return nil, fmt.Errorf("parse operation_id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	if j.Amount < 0 {
		return nil, fmt.Errorf("negative amount: %d", j.Amount)
	}

	return &DepositOtherRequest{
		OpID:    opID,
		UserID:  userID,
		AssetIn: asset.Asset(j.AssetIn),
		Amount:  j.Amount,
	}, nil
}

type setOracleJSON struct {
	OperationID string `json:"operation_id"`
	CallerID    string `json:"caller_id"`
	Feed        string `json:"feed"`
}

func parseSetOracle(data []byte) (Request, error) {
	var j setOracleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SetOracle: %w", err)
	}

	opID, err := uuid.Parse(j.OperationID)
	if err != nil {
		return nil, fmt.Errorf("parse operation_id: %w", err)
	}
	callerID, err := uuid.Parse(j.CallerID)
	if err != nil {
		return nil, fmt.Errorf("parse caller_id: %w", err)
	}
	if j.Feed == "" {
		return nil, fmt.Errorf("empty feed")
	}

	return &SetOracleRequest{
		OpID:     opID,
		CallerID: callerID,
		Feed:     j.Feed,
	}, nil
}

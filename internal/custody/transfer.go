// Package custody declares the asset-transfer capabilities the engine
// consumes. Value movement is external to the accounting core: implementations
// talk to the custody layer and may fail, and the engine treats every call as
// a single atomic attempt.
package custody

import (
	"context"

	"VaultLedger/internal/asset"

	"github.com/google/uuid"
)

// TokenTransferor moves fungible-asset value between users and vault custody.
// It serves both the settlement asset and arbitrary deposit assets.
type TokenTransferor interface {
	// Transfer pays out amount of a from vault custody to recipient.
	Transfer(ctx context.Context, a asset.Asset, recipient uuid.UUID, amount int64) error

	// TransferFrom pulls amount of a from owner into vault custody.
	TransferFrom(ctx context.Context, a asset.Asset, owner uuid.UUID, amount int64) error

	// Approve authorizes spender to draw up to amount of a from vault custody.
	Approve(ctx context.Context, a asset.Asset, spender string, amount int64) error
}

// NativeTransferor moves native-coin value out of vault custody. Inbound
// native value arrives with the call itself; only payout needs a capability.
type NativeTransferor interface {
	Send(ctx context.Context, recipient uuid.UUID, amount int64) error
}

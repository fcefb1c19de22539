package ports

import (
	"context"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
)

// AssetTransfer moves typed asset amounts between external addresses and the
// escrow custody. Every call either fully succeeds or fails without effect.
type AssetTransfer interface {
	PullIn(ctx context.Context, from domain.Address, asset domain.Asset, amount uint64) error
	PushOut(ctx context.Context, to domain.Address, asset domain.Asset, amount uint64) error
	// Custodied returns the amount of asset actually held in custody.
	Custodied(ctx context.Context, asset domain.Asset) (uint64, error)
}

package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// setGlobalWeights persists the quantized epoch aggregate for a subnet.
func (k Keeper) setGlobalWeights(ctx context.Context, subnetID uint32, epoch uint64, vector types.WeightVector) error {
	return k.GlobalWeights.Set(ctx, collections.Join(subnetID, epoch), vector)
}

// GetGlobalWeights returns the aggregated weight vector for a closed
// subnet epoch. Querying an epoch whose boundary has not run yet fails
// with ErrNotYetComputed rather than returning a default.
func (k Keeper) GetGlobalWeights(ctx context.Context, subnetID uint32, epoch uint64) (types.WeightVector, error) {
	vector, err := k.GlobalWeights.Get(ctx, collections.Join(subnetID, epoch))
	if errors.Is(err, collections.ErrNotFound) {
		return types.WeightVector{}, sdkerrors.Wrapf(types.ErrNotYetComputed, "global weights for subnet %d epoch %d", subnetID, epoch)
	}
	if err != nil {
		return types.WeightVector{}, err
	}
	return vector, nil
}

package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// SetWeightVector writes a validator's vector for a subnet epoch,
// replacing any prior vector under the same key. The store enforces the
// subnet's miner bound independently of submission validation.
func (k Keeper) SetWeightVector(ctx context.Context, subnetID uint32, epoch uint64, validatorID uint32, vector types.WeightVector) error {
	if err := vector.Validate(); err != nil {
		return err
	}
	meta, found, err := k.registry.SubnetMeta(ctx, subnetID)
	if err != nil {
		return err
	}
	if !found {
		return sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	if len(vector.Entries) > int(meta.MaxMiners) {
		k.LogError("SetWeightVector: vector exceeds subnet miner bound", types.Weights,
			"subnet", subnetID, "epoch", epoch, "validator", validatorID,
			"entries", len(vector.Entries), "maxMiners", meta.MaxMiners)
		return sdkerrors.Wrapf(types.ErrStorageOverflow, "%d entries exceeds max_miners %d", len(vector.Entries), meta.MaxMiners)
	}
	return k.WeightVectors.Set(ctx, collections.Join3(subnetID, epoch, validatorID), vector)
}

// GetWeightVector returns a stored vector and whether it exists.
func (k Keeper) GetWeightVector(ctx context.Context, subnetID uint32, epoch uint64, validatorID uint32) (types.WeightVector, bool, error) {
	vector, err := k.WeightVectors.Get(ctx, collections.Join3(subnetID, epoch, validatorID))
	if errors.Is(err, collections.ErrNotFound) {
		return types.WeightVector{}, false, nil
	}
	if err != nil {
		return types.WeightVector{}, false, err
	}
	return vector, true, nil
}

// IterateEpochSubmissions walks every submission for a subnet epoch in
// ascending validator order. fn returning true stops the walk early.
func (k Keeper) IterateEpochSubmissions(ctx context.Context, subnetID uint32, epoch uint64, fn func(validatorID uint32, vector types.WeightVector) (stop bool, err error)) error {
	iter, err := k.WeightVectors.Iterate(ctx, collections.NewPrefixedTripleRange[uint32, uint64, uint32](subnetID))
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		key, err := iter.Key()
		if err != nil {
			return err
		}
		if key.K2() != epoch {
			continue
		}
		vector, err := iter.Value()
		if err != nil {
			return err
		}
		stop, err := fn(key.K3(), vector)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// CollectEpochSubmissions snapshots every submission for a subnet epoch,
// ordered by ascending validator id. Epoch processing reads this snapshot
// once and never re-reads the store mid-pipeline.
func (k Keeper) CollectEpochSubmissions(ctx context.Context, subnetID uint32, epoch uint64) ([]types.ValidatorSubmission, error) {
	var submissions []types.ValidatorSubmission
	err := k.IterateEpochSubmissions(ctx, subnetID, epoch, func(validatorID uint32, vector types.WeightVector) (bool, error) {
		submissions = append(submissions, types.ValidatorSubmission{
			ValidatorId: validatorID,
			Vector:      vector,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// setRewardRecord persists the reward record for a closed subnet epoch.
func (k Keeper) setRewardRecord(ctx context.Context, record types.RewardRecord) error {
	return k.RewardRecords.Set(ctx, collections.Join(record.SubnetId, record.Epoch), record)
}

// GetRewardRecord returns the reward record for a closed subnet epoch.
// Querying before the boundary has processed the epoch fails with
// ErrNotYetComputed; the external ledger must never credit from a default
// or stale record.
func (k Keeper) GetRewardRecord(ctx context.Context, subnetID uint32, epoch uint64) (types.RewardRecord, error) {
	record, err := k.RewardRecords.Get(ctx, collections.Join(subnetID, epoch))
	if errors.Is(err, collections.ErrNotFound) {
		return types.RewardRecord{}, sdkerrors.Wrapf(types.ErrNotYetComputed, "rewards for subnet %d epoch %d", subnetID, epoch)
	}
	if err != nil {
		return types.RewardRecord{}, err
	}
	return record, nil
}

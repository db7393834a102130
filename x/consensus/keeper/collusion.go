package keeper

import (
	"context"

	"cosmossdk.io/collections"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// storeCollusionFlags persists the scanner's flags for a subnet epoch under
// ascending sequence numbers. The scanner emits flags in a deterministic
// order, so the stored sequence is replay-stable.
func (k Keeper) storeCollusionFlags(ctx context.Context, subnetID uint32, epoch uint64, flags []types.CollusionFlag) error {
	for i, flag := range flags {
		if err := k.CollusionFlags.Set(ctx, collections.Join3(subnetID, epoch, uint32(i)), flag); err != nil {
			return err
		}
	}
	return nil
}

// GetCollusionFlags returns all flags recorded for a subnet epoch, in the
// order the scanner emitted them. No flags is an empty result, not an
// error: the scan is advisory and absence of flags is meaningful.
func (k Keeper) GetCollusionFlags(ctx context.Context, subnetID uint32, epoch uint64) ([]types.CollusionFlag, error) {
	iter, err := k.CollusionFlags.Iterate(ctx, collections.NewPrefixedTripleRange[uint32, uint64, uint32](subnetID))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var flags []types.CollusionFlag
	for ; iter.Valid(); iter.Next() {
		key, err := iter.Key()
		if err != nil {
			return nil, err
		}
		if key.K2() != epoch {
			continue
		}
		flag, err := iter.Value()
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

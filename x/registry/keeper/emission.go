package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

// SubnetEmission returns the epoch emission for a subnet, the floor of the
// base emission scaled by the subnet's share. The epoch argument is part of
// the schedule surface; the current schedule is flat across epochs.
func (k Keeper) SubnetEmission(ctx context.Context, subnetID uint32, _ uint64) (math.Int, error) {
	subnet, found, err := k.GetSubnet(ctx, subnetID)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !found {
		return math.ZeroInt(), sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	if subnet.Status != types.SubnetActive {
		return math.ZeroInt(), sdkerrors.Wrapf(types.ErrSubnetRetired, "subnet %d", subnetID)
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	emission := math.LegacyNewDecFromInt(params.BaseEpochEmission).Mul(subnet.EmissionShare).TruncateInt()
	return emission, nil
}

// ValidatorEmissionShare returns the fraction of a subnet's emission paid to
// validators, honoring the subnet's override when one is set.
func (k Keeper) ValidatorEmissionShare(ctx context.Context, subnetID uint32) (math.LegacyDec, error) {
	subnet, found, err := k.GetSubnet(ctx, subnetID)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	if !found {
		return math.LegacyZeroDec(), sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	if subnet.ValidatorShare != nil {
		return *subnet.ValidatorShare, nil
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	return params.DefaultValidatorShare, nil
}

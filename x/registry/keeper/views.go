package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
	"github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

var (
	_ consensustypes.RegistryView     = Keeper{}
	_ consensustypes.LedgerView       = Keeper{}
	_ consensustypes.EmissionSchedule = Keeper{}
)

// SubnetMeta exposes the subnet view consumed by the consensus module.
func (k Keeper) SubnetMeta(ctx context.Context, subnetID uint32) (consensustypes.SubnetMeta, bool, error) {
	subnet, found, err := k.GetSubnet(ctx, subnetID)
	if err != nil || !found {
		return consensustypes.SubnetMeta{}, false, err
	}
	return consensustypes.SubnetMeta{
		Id:                subnet.Id,
		Active:            subnet.Status == types.SubnetActive,
		MaxMiners:         subnet.MaxMiners,
		MaxValidators:     subnet.MaxValidators,
		MinStakeMiner:     subnet.MinStakeMiner,
		MinStakeValidator: subnet.MinStakeValidator,
	}, true, nil
}

// IsActiveSubnet reports whether the subnet exists and accepts
// submissions.
func (k Keeper) IsActiveSubnet(ctx context.Context, subnetID uint32) (bool, error) {
	meta, found, err := k.SubnetMeta(ctx, subnetID)
	if err != nil || !found {
		return false, err
	}
	return meta.Active, nil
}

// MaxMiners returns the subnet's miner bound.
func (k Keeper) MaxMiners(ctx context.Context, subnetID uint32) (uint16, error) {
	meta, found, err := k.SubnetMeta(ctx, subnetID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	return meta.MaxMiners, nil
}

// IsActiveParticipant reports whether uid holds the role on the subnet and
// has not been deactivated.
func (k Keeper) IsActiveParticipant(ctx context.Context, subnetID, uid uint32, role consensustypes.ParticipantRole) (bool, error) {
	participant, found, err := k.GetParticipant(ctx, subnetID, uid, role)
	if err != nil || !found {
		return false, err
	}
	return participant.Active, nil
}

// ActiveSubnets returns the ids of all active subnets in ascending order.
func (k Keeper) ActiveSubnets(ctx context.Context) ([]uint32, error) {
	var ids []uint32
	err := k.Subnets.Walk(ctx, nil, func(id uint32, subnet types.SubnetInfo) (bool, error) {
		if subnet.Status == types.SubnetActive {
			ids = append(ids, id)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// StakeOf returns the participant's registered stake.
func (k Keeper) StakeOf(ctx context.Context, subnetID, uid uint32, role consensustypes.ParticipantRole) (math.Int, error) {
	participant, found, err := k.GetParticipant(ctx, subnetID, uid, role)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !found {
		return math.ZeroInt(), sdkerrors.Wrapf(types.ErrUnknownParticipant, "subnet %d %s uid %d", subnetID, role.String(), uid)
	}
	return participant.Stake, nil
}

package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
	"github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

// RegisterMiner adds a miner to a subnet, gated by the subnet's minimum
// miner stake and its miner limit.
func (k Keeper) RegisterMiner(ctx context.Context, subnetID, uid uint32, account string, stake math.Int, joinedEpoch uint64) error {
	return k.registerParticipant(ctx, subnetID, uid, account, consensustypes.RoleMiner, stake, joinedEpoch)
}

// RegisterValidator adds a validator to a subnet, gated by the subnet's
// minimum validator stake and its validator limit.
func (k Keeper) RegisterValidator(ctx context.Context, subnetID, uid uint32, account string, stake math.Int, joinedEpoch uint64) error {
	return k.registerParticipant(ctx, subnetID, uid, account, consensustypes.RoleValidator, stake, joinedEpoch)
}

func (k Keeper) registerParticipant(
	ctx context.Context,
	subnetID, uid uint32,
	account string,
	role consensustypes.ParticipantRole,
	stake math.Int,
	joinedEpoch uint64,
) error {
	subnet, found, err := k.GetSubnet(ctx, subnetID)
	if err != nil {
		return err
	}
	if !found {
		return sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	if subnet.Status != types.SubnetActive {
		return sdkerrors.Wrapf(types.ErrSubnetRetired, "subnet %d", subnetID)
	}

	minStake := subnet.MinStakeMiner
	limit := subnet.MaxMiners
	if role == consensustypes.RoleValidator {
		minStake = subnet.MinStakeValidator
		limit = subnet.MaxValidators
	}
	if stake.IsNil() || stake.LT(minStake) {
		k.LogError("registerParticipant: stake below minimum", consensustypes.Registry,
			"subnet", subnetID, "uid", uid, "role", role.String(),
			"stake", stake.String(), "minStake", minStake.String())
		return sdkerrors.Wrapf(types.ErrInsufficientStake, "uid %d: stake %s < %s", uid, stake.String(), minStake.String())
	}

	key := collections.Join3(subnetID, uint32(role), uid)
	exists, err := k.Participants.Has(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return sdkerrors.Wrapf(types.ErrParticipantExists, "subnet %d %s uid %d", subnetID, role.String(), uid)
	}

	active, err := k.countActive(ctx, subnetID, role)
	if err != nil {
		return err
	}
	if active >= int(limit) {
		k.LogError("registerParticipant: subnet at capacity", consensustypes.Registry,
			"subnet", subnetID, "role", role.String(), "limit", limit)
		return sdkerrors.Wrapf(types.ErrSubnetFull, "subnet %d has %d active %ss", subnetID, active, role.String())
	}

	participant := types.Participant{
		Uid:         uid,
		Account:     account,
		Role:        role,
		Stake:       stake,
		Active:      true,
		JoinedEpoch: joinedEpoch,
	}
	if err := k.Participants.Set(ctx, key, participant); err != nil {
		return err
	}
	k.LogInfo("registerParticipant: registered", consensustypes.Registry,
		"subnet", subnetID, "uid", uid, "role", role.String(), "stake", stake.String())
	return nil
}

// DeactivateParticipant flips a participant to inactive without deleting
// its record, so historical epochs stay auditable.
func (k Keeper) DeactivateParticipant(ctx context.Context, subnetID, uid uint32, role consensustypes.ParticipantRole) error {
	key := collections.Join3(subnetID, uint32(role), uid)
	participant, err := k.Participants.Get(ctx, key)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkerrors.Wrapf(types.ErrUnknownParticipant, "subnet %d %s uid %d", subnetID, role.String(), uid)
	}
	if err != nil {
		return err
	}
	participant.Active = false
	if err := k.Participants.Set(ctx, key, participant); err != nil {
		return err
	}
	k.LogInfo("DeactivateParticipant: deactivated", consensustypes.Registry,
		"subnet", subnetID, "uid", uid, "role", role.String())
	return nil
}

// GetParticipant returns a participant record and whether it exists.
func (k Keeper) GetParticipant(ctx context.Context, subnetID, uid uint32, role consensustypes.ParticipantRole) (types.Participant, bool, error) {
	participant, err := k.Participants.Get(ctx, collections.Join3(subnetID, uint32(role), uid))
	if errors.Is(err, collections.ErrNotFound) {
		return types.Participant{}, false, nil
	}
	if err != nil {
		return types.Participant{}, false, err
	}
	return participant, true, nil
}

func (k Keeper) countActive(ctx context.Context, subnetID uint32, role consensustypes.ParticipantRole) (int, error) {
	iter, err := k.Participants.Iterate(ctx, collections.NewPrefixedTripleRange[uint32, uint32, uint32](subnetID))
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	count := 0
	for ; iter.Valid(); iter.Next() {
		v, err := iter.Value()
		if err != nil {
			return 0, err
		}
		if v.Role == role && v.Active {
			count++
		}
	}
	return count, nil
}

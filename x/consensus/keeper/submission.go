package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/calculations"
	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// SubmitWeights validates a validator's raw weight submission, normalizes
// it and stores it for the epoch. Checks run cheapest first; the first
// failure rejects the whole submission with no state change. A repeat
// submission for the same (subnet, epoch, validator) replaces the earlier
// one.
func (k Keeper) SubmitWeights(ctx context.Context, subnetID uint32, epoch uint64, validatorID uint32, raw types.WeightVector) error {
	meta, found, err := k.registry.SubnetMeta(ctx, subnetID)
	if err != nil {
		return err
	}
	if !found {
		k.LogError("SubmitWeights: unknown subnet", types.Weights, "subnet", subnetID, "validator", validatorID)
		return sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	if !meta.Active {
		k.LogError("SubmitWeights: inactive subnet", types.Weights, "subnet", subnetID, "validator", validatorID)
		return sdkerrors.Wrapf(types.ErrInactiveSubnet, "subnet %d", subnetID)
	}

	if err := k.checkValidatorEligibility(ctx, meta, validatorID); err != nil {
		return err
	}

	currentEpoch, err := k.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}
	if epoch != currentEpoch && epoch != currentEpoch+1 {
		k.LogError("SubmitWeights: epoch outside submission window", types.Weights,
			"subnet", subnetID, "validator", validatorID, "epoch", epoch, "currentEpoch", currentEpoch)
		return sdkerrors.Wrapf(types.ErrEpochMismatch, "epoch %d, current %d", epoch, currentEpoch)
	}

	if err := raw.Validate(); err != nil {
		return err
	}
	if len(raw.Entries) > int(meta.MaxMiners) {
		k.LogError("SubmitWeights: vector too large", types.Weights,
			"subnet", subnetID, "validator", validatorID, "entries", len(raw.Entries), "maxMiners", meta.MaxMiners)
		return sdkerrors.Wrapf(types.ErrVectorTooLarge, "%d entries exceeds max_miners %d", len(raw.Entries), meta.MaxMiners)
	}

	for _, entry := range raw.Entries {
		active, err := k.registry.IsActiveParticipant(ctx, subnetID, entry.Uid, types.RoleMiner)
		if err != nil {
			return err
		}
		if !active {
			k.LogError("SubmitWeights: weight for unknown miner", types.Weights,
				"subnet", subnetID, "validator", validatorID, "uid", entry.Uid)
			return sdkerrors.Wrapf(types.ErrUnknownMiner, "uid %d is not an active miner of subnet %d", entry.Uid, subnetID)
		}
	}

	scores := make([]calculations.RawScore, len(raw.Entries))
	for i, entry := range raw.Entries {
		scores[i] = calculations.RawScore{Uid: entry.Uid, Score: math.LegacyNewDec(int64(entry.Weight))}
	}
	normalized, err := calculations.NormalizeL1(scores)
	if err != nil {
		k.LogError("SubmitWeights: normalization rejected vector", types.Weights,
			"subnet", subnetID, "validator", validatorID, "error", err.Error())
		return err
	}

	if err := k.SetWeightVector(ctx, subnetID, epoch, validatorID, normalized); err != nil {
		return err
	}
	if err := k.initReputation(ctx, subnetID, validatorID); err != nil {
		return err
	}

	k.LogInfo("SubmitWeights: accepted", types.Weights,
		"subnet", subnetID, "epoch", epoch, "validator", validatorID, "entries", len(normalized.Entries))
	return nil
}

// checkValidatorEligibility requires the submitter to be a registered,
// active validator whose stake still clears the subnet minimum. A
// validator whose stake has fallen below the bar is treated the same as an
// unregistered one.
func (k Keeper) checkValidatorEligibility(ctx context.Context, meta types.SubnetMeta, validatorID uint32) error {
	active, err := k.registry.IsActiveParticipant(ctx, meta.Id, validatorID, types.RoleValidator)
	if err != nil {
		return err
	}
	if !active {
		k.LogError("SubmitWeights: unknown validator", types.Weights, "subnet", meta.Id, "validator", validatorID)
		return sdkerrors.Wrapf(types.ErrUnknownParticipant, "validator %d is not active on subnet %d", validatorID, meta.Id)
	}
	stake, err := k.ledger.StakeOf(ctx, meta.Id, validatorID, types.RoleValidator)
	if err != nil {
		return err
	}
	if stake.LT(meta.MinStakeValidator) {
		k.LogError("SubmitWeights: validator stake below subnet minimum", types.Weights,
			"subnet", meta.Id, "validator", validatorID, "stake", stake.String(), "minStake", meta.MinStakeValidator.String())
		return sdkerrors.Wrapf(types.ErrUnknownParticipant, "validator %d stake %s below minimum %s", validatorID, stake.String(), meta.MinStakeValidator.String())
	}
	return nil
}

// initReputation seeds a validator's score on its first accepted
// submission. Existing scores are never touched here.
func (k Keeper) initReputation(ctx context.Context, subnetID, validatorID uint32) error {
	key := collections.Join(subnetID, validatorID)
	has, err := k.Reputations.Has(ctx, key)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return k.Reputations.Set(ctx, key, types.DefaultReputation)
}

package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/calculations"
	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// GetReputation returns a validator's current score on a subnet, or the
// initial score if it has never submitted there.
func (k Keeper) GetReputation(ctx context.Context, subnetID, validatorID uint32) (math.LegacyDec, error) {
	rep, err := k.Reputations.Get(ctx, collections.Join(subnetID, validatorID))
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultReputation, nil
	}
	if err != nil {
		return math.LegacyDec{}, err
	}
	return rep, nil
}

// snapshotReputations reads the scores of the submitting validators as of
// the start of epoch processing. Aggregation consumes this snapshot so
// that the reputation update, which runs later in the same pipeline, can
// never feed back into the same epoch's aggregate.
func (k Keeper) snapshotReputations(ctx context.Context, subnetID uint32, submissions []types.ValidatorSubmission) (map[uint32]math.LegacyDec, error) {
	snapshot := make(map[uint32]math.LegacyDec, len(submissions))
	for _, sub := range submissions {
		rep, err := k.GetReputation(ctx, subnetID, sub.ValidatorId)
		if err != nil {
			return nil, err
		}
		snapshot[sub.ValidatorId] = rep
	}
	return snapshot, nil
}

// updateEpochReputations folds each submitter's similarity to the epoch
// aggregate into its score and persists the result. Validators that did
// not submit are left untouched. Returns the post-update scores of the
// submitters, which the reward stage consumes.
func (k Keeper) updateEpochReputations(
	ctx context.Context,
	subnetID uint32,
	epoch uint64,
	global *calculations.GlobalWeights,
	submissions []types.ValidatorSubmission,
	alpha math.LegacyDec,
) (map[uint32]math.LegacyDec, error) {
	updated := make(map[uint32]math.LegacyDec, len(submissions))
	for _, sub := range submissions {
		sim, err := calculations.CosineSimilarity(sub.Vector, global)
		if err != nil {
			return nil, err
		}
		rep, err := k.GetReputation(ctx, subnetID, sub.ValidatorId)
		if err != nil {
			return nil, err
		}
		next := calculations.UpdateReputation(rep, sim, alpha)
		if err := k.Reputations.Set(ctx, collections.Join(subnetID, sub.ValidatorId), next); err != nil {
			return nil, err
		}
		updated[sub.ValidatorId] = next
		k.LogDebug("updateEpochReputations: updated validator", types.Reputation,
			"subnet", subnetID, "epoch", epoch, "validator", sub.ValidatorId,
			"similarity", sim.String(), "reputation", next.String())
	}
	return updated, nil
}

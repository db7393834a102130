package keeper

import (
	"context"
	"errors"

	sdkerrors "cosmossdk.io/errors"
	"golang.org/x/sync/errgroup"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/calculations"
	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// OnEpochBoundary closes the given epoch: every active subnet's pipeline
// runs to completion, then the submission window advances to the next
// epoch. Subnet pipelines are independent and run in parallel; one
// subnet's failure is logged and never blocks the others or the epoch
// advance. The boundary must be invoked with the epoch currently open.
func (k Keeper) OnEpochBoundary(ctx context.Context, epoch uint64) error {
	current, err := k.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}
	if epoch != current {
		k.LogError("OnEpochBoundary: boundary for wrong epoch", types.Epoch, "epoch", epoch, "currentEpoch", current)
		return sdkerrors.Wrapf(types.ErrEpochMismatch, "boundary for epoch %d, current epoch is %d", epoch, current)
	}

	subnets, err := k.registry.ActiveSubnets(ctx)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(k.epochWorkers)
	subnetErrs := make([]error, len(subnets))
	for i, subnetID := range subnets {
		g.Go(func() error {
			subnetErrs[i] = k.processSubnetEpoch(ctx, subnetID, epoch)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, subnetErr := range subnetErrs {
		if subnetErr != nil {
			failed++
			k.LogError("OnEpochBoundary: subnet pipeline failed", types.Epoch,
				"subnet", subnets[i], "epoch", epoch, "error", subnetErr.Error())
		}
	}

	if err := k.setCurrentEpoch(ctx, epoch+1); err != nil {
		return err
	}
	k.LogInfo("OnEpochBoundary: epoch closed", types.Epoch,
		"epoch", epoch, "subnets", len(subnets), "failed", failed, "nextEpoch", epoch+1)
	return nil
}

// processSubnetEpoch runs one subnet's pipeline for a closing epoch:
// aggregation, reputation update, collusion scan, reward distribution.
// All reads happen against the snapshot taken at the top; the collusion
// scan is advisory and degrades to no flags on failure.
func (k Keeper) processSubnetEpoch(ctx context.Context, subnetID uint32, epoch uint64) error {
	submissions, err := k.CollectEpochSubmissions(ctx, subnetID, epoch)
	if err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	repSnapshot, err := k.snapshotReputations(ctx, subnetID, submissions)
	if err != nil {
		return err
	}

	aggregator := calculations.NewWeightAggregator(subnetID, epoch, submissions, repSnapshot, k)
	global, err := aggregator.Aggregate()
	if err != nil {
		if !errors.Is(err, types.ErrEmptySubnetEpoch) {
			return err
		}
		// No submissions: the epoch still closes with an all-zero
		// aggregate and the emission is burned by the reward stage.
		k.LogWarn("processSubnetEpoch: no submissions for epoch", types.Epoch,
			"subnet", subnetID, "epoch", epoch)
		global = &calculations.GlobalWeights{}
	}
	if err := k.setGlobalWeights(ctx, subnetID, epoch, global.Quantize()); err != nil {
		return err
	}

	updated, err := k.updateEpochReputations(ctx, subnetID, epoch, global, submissions, params.Alpha)
	if err != nil {
		return err
	}

	scanner := calculations.NewCollusionScanner(subnetID, epoch, submissions, params.CollusionThreshold, params.MinCartelSize, k)
	flags, err := scanner.Scan()
	if err != nil {
		k.LogError("processSubnetEpoch: collusion scan failed, continuing without flags", types.Collusion,
			"subnet", subnetID, "epoch", epoch,
			"error", sdkerrors.Wrap(types.ErrCollusionScanFail, err.Error()).Error())
	} else if err := k.storeCollusionFlags(ctx, subnetID, epoch, flags); err != nil {
		k.LogError("processSubnetEpoch: storing collusion flags failed, continuing", types.Collusion,
			"subnet", subnetID, "epoch", epoch, "error", err.Error())
	}

	emission, err := k.emissions.SubnetEmission(ctx, subnetID, epoch)
	if err != nil {
		return err
	}
	validatorShare, err := k.emissions.ValidatorEmissionShare(ctx, subnetID)
	if err != nil {
		return err
	}
	distributor := calculations.NewRewardDistributor(subnetID, epoch, global, updated, emission, validatorShare, k)
	record, err := distributor.Distribute()
	if err != nil {
		return err
	}
	if err := k.setRewardRecord(ctx, *record); err != nil {
		return err
	}

	k.LogInfo("processSubnetEpoch: pipeline complete", types.Epoch,
		"subnet", subnetID, "epoch", epoch,
		"submissions", len(submissions), "flags", len(flags),
		"burned", record.Burned.String())
	return nil
}

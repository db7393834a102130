package keeper_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	keepertest "github.com/0xDevNinja/neuro-mesh/testutil/keeper"
	registrykeeper "github.com/0xDevNinja/neuro-mesh/x/registry/keeper"
	registrytypes "github.com/0xDevNinja/neuro-mesh/x/registry/types"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// setEmissionPolicy pins the registry's emission knobs so reward amounts
// in these tests are exact.
func setEmissionPolicy(t *testing.T, ctx context.Context, registry registrykeeper.Keeper, base int64, validatorShare string) {
	t.Helper()
	share, err := math.LegacyNewDecFromStr(validatorShare)
	require.NoError(t, err)
	require.NoError(t, registry.SetParams(ctx, registrytypes.Params{
		BaseEpochEmission:     math.NewInt(base),
		DefaultValidatorShare: share,
	}))
}

func TestEpochBoundaryAggregatesConsensus(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 1, 2)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	keepertest.SeedValidator(t, ctx, registry, 1, 20)
	keepertest.SeedValidator(t, ctx, registry, 1, 30)

	// Three fresh validators with equal reputations: 60/40, 50/50, 40/60.
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 6), entry(2, 4))))
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 20, vec(entry(1, 1), entry(2, 1))))
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 30, vec(entry(1, 4), entry(2, 6))))

	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	// The disagreement cancels out; the aggregate is the even split, with
	// the odd scale unit going to the lower uid.
	global, err := k.GetGlobalWeights(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, vec(entry(1, 32768), entry(2, 32767)), global)

	epoch, err := k.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), epoch)

	record, err := k.GetRewardRecord(ctx, 1, 0)
	require.NoError(t, err)
	require.True(t, record.TotalDistributed().Add(record.Burned).Equal(math.NewInt(1_000_000_000)))
}

func TestEpochBoundaryWrongEpoch(t *testing.T) {
	k, _, ctx := keepertest.ConsensusKeeper(t)

	err := k.OnEpochBoundary(ctx, 5)
	require.ErrorIs(t, err, types.ErrEpochMismatch)

	epoch, err := k.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), epoch)
}

func TestEpochResultsNotAvailableBeforeBoundary(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 1))))

	_, err := k.GetGlobalWeights(ctx, 1, 0)
	require.ErrorIs(t, err, types.ErrNotYetComputed)
	_, err = k.GetRewardRecord(ctx, 1, 0)
	require.ErrorIs(t, err, types.ErrNotYetComputed)
}

func TestEpochBoundaryEmptyEpochBurnsAndMovesOn(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	setEmissionPolicy(t, ctx, registry, 1000, "0")
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)

	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	// The epoch closed with an all-zero aggregate, not a missing one.
	global, err := k.GetGlobalWeights(ctx, 1, 0)
	require.NoError(t, err)
	require.True(t, global.IsZero())

	record, err := k.GetRewardRecord(ctx, 1, 0)
	require.NoError(t, err)
	require.Empty(t, record.MinerRewards)
	require.Empty(t, record.ValidatorRewards)
	require.True(t, record.Burned.Equal(math.NewInt(1000)))

	// The idle epoch leaves no residue in the next one.
	require.NoError(t, k.SubmitWeights(ctx, 1, 1, 10, vec(entry(1, 1))))
	require.NoError(t, k.OnEpochBoundary(ctx, 1))
	global, err = k.GetGlobalWeights(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, vec(entry(1, 65535)), global)
	record, err = k.GetRewardRecord(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []types.RewardAmount{{Uid: 1, Amount: math.NewInt(1000)}}, record.MinerRewards)
	require.True(t, record.Burned.IsZero())
}

func TestEpochBoundaryLastWriteWins(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 1, 2)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)

	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 1), entry(2, 1))))
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(2, 1))))

	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	global, err := k.GetGlobalWeights(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, vec(entry(2, 65535)), global)
}

func TestEpochRewardsFollowConsensus(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	setEmissionPolicy(t, ctx, registry, 1000, "0")
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 1, 2)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	keepertest.SeedValidator(t, ctx, registry, 1, 20)

	// Both validators call it even. The scale is odd, so the aggregate
	// leans one unit toward uid 1 and the payout remainder follows it.
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 1), entry(2, 1))))
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 20, vec(entry(1, 1), entry(2, 1))))

	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	record, err := k.GetRewardRecord(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, []types.RewardAmount{
		{Uid: 1, Amount: math.NewInt(501)},
		{Uid: 2, Amount: math.NewInt(499)},
	}, record.MinerRewards)
	require.Empty(t, record.ValidatorRewards)
	require.True(t, record.Burned.IsZero())
}

func TestEpochRewardsSplitValidatorPool(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	setEmissionPolicy(t, ctx, registry, 1000, "0.25")
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)

	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 1))))
	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	record, err := k.GetRewardRecord(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, []types.RewardAmount{{Uid: 1, Amount: math.NewInt(750)}}, record.MinerRewards)
	require.Equal(t, []types.RewardAmount{{Uid: 10, Amount: math.NewInt(250)}}, record.ValidatorRewards)
	require.True(t, record.Burned.IsZero())

	// Submitting the consensus exactly pulls the score toward 1 by one
	// EMA step: 0.9*0.5 + 0.1*1.
	rep, err := k.GetReputation(ctx, 1, 10)
	require.NoError(t, err)
	requireDecNear(t, math.LegacyNewDecWithPrec(55, 2), rep)
}

func TestReputationConvergesOverEpochs(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 1, 2)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)

	for epoch := uint64(0); epoch < 3; epoch++ {
		require.NoError(t, k.SubmitWeights(ctx, 1, epoch, 10, vec(entry(1, 3), entry(2, 1))))
		require.NoError(t, k.OnEpochBoundary(ctx, epoch))
	}

	// Three perfect epochs: 0.5 -> 0.55 -> 0.595 -> 0.6355.
	rep, err := k.GetReputation(ctx, 1, 10)
	require.NoError(t, err)
	requireDecNear(t, math.LegacyMustNewDecFromStr("0.6355"), rep)
}

func TestEpochSubnetsAreIsolated(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	setEmissionPolicy(t, ctx, registry, 1000, "0")
	keepertest.SeedSubnet(t, ctx, registry, 1, "0.5")
	keepertest.SeedSubnet(t, ctx, registry, 2, "0.5")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 2, 1)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	keepertest.SeedValidator(t, ctx, registry, 2, 10)

	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 1))))
	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	global, err := k.GetGlobalWeights(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, vec(entry(1, 65535)), global)

	// Subnet 2 closed empty: zero aggregate, full burn of its half.
	global, err = k.GetGlobalWeights(ctx, 2, 0)
	require.NoError(t, err)
	require.True(t, global.IsZero())
	record, err := k.GetRewardRecord(ctx, 2, 0)
	require.NoError(t, err)
	require.True(t, record.Burned.Equal(math.NewInt(500)))

	// The validator's score moved only where it submitted.
	rep, err := k.GetReputation(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, rep.Equal(types.DefaultReputation))
	rep, err = k.GetReputation(ctx, 2, 10)
	require.NoError(t, err)
	require.True(t, rep.Equal(types.DefaultReputation))
}

func TestEpochRetiredSubnetSkipped(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 1))))
	require.NoError(t, registry.RetireSubnet(ctx, keepertest.Owner, 1))

	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	_, err := k.GetGlobalWeights(ctx, 1, 0)
	require.ErrorIs(t, err, types.ErrNotYetComputed)

	epoch, err := k.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), epoch)
}

func TestEpochBoundaryFlagsCorrelatedValidators(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 1, 2)
	keepertest.SeedMiner(t, ctx, registry, 1, 3)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	keepertest.SeedValidator(t, ctx, registry, 1, 20)
	keepertest.SeedValidator(t, ctx, registry, 1, 30)

	// Three byte-identical submissions: three flagged pairs plus the
	// cartel.
	identical := vec(entry(1, 6), entry(2, 3), entry(3, 1))
	for _, validator := range []uint32{10, 20, 30} {
		require.NoError(t, k.SubmitWeights(ctx, 1, 0, validator, identical))
	}
	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	flags, err := k.GetCollusionFlags(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, flags, 4)
	require.Equal(t, []uint32{10, 20}, flags[0].Validators)
	require.Equal(t, []uint32{10, 30}, flags[1].Validators)
	require.Equal(t, []uint32{20, 30}, flags[2].Validators)
	require.Equal(t, []uint32{10, 20, 30}, flags[3].Validators)
	for _, flag := range flags {
		require.True(t, flag.Correlation.Equal(math.LegacyOneDec()))
		require.Equal(t, uint32(1), flag.SubnetId)
		require.Equal(t, uint64(0), flag.Epoch)
	}

	// Flags are advisory: the epoch still paid out in full.
	record, err := k.GetRewardRecord(ctx, 1, 0)
	require.NoError(t, err)
	require.True(t, record.TotalDistributed().Add(record.Burned).Equal(math.NewInt(1_000_000_000)))
}

func TestEpochNoFlagsForIndependentValidators(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedMiner(t, ctx, registry, 1, 1)
	keepertest.SeedMiner(t, ctx, registry, 1, 2)
	keepertest.SeedMiner(t, ctx, registry, 1, 3)
	keepertest.SeedValidator(t, ctx, registry, 1, 10)
	keepertest.SeedValidator(t, ctx, registry, 1, 20)

	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 10, vec(entry(1, 3), entry(2, 1), entry(3, 2))))
	require.NoError(t, k.SubmitWeights(ctx, 1, 0, 20, vec(entry(1, 1), entry(2, 3), entry(3, 2))))
	require.NoError(t, k.OnEpochBoundary(ctx, 0))

	flags, err := k.GetCollusionFlags(ctx, 1, 0)
	require.NoError(t, err)
	require.Empty(t, flags)
}

func TestEpochPipelineDeterministicAcrossStores(t *testing.T) {
	type submission struct {
		validator uint32
		vector    types.WeightVector
	}
	submissions := []submission{
		{10, vec(entry(1, 7), entry(2, 2), entry(3, 1))},
		{20, vec(entry(1, 1), entry(2, 1))},
		{30, vec(entry(2, 5), entry(3, 5))},
	}

	run := func(order []int) (types.WeightVector, types.RewardRecord, map[uint32]math.LegacyDec) {
		k, registry, ctx := keepertest.ConsensusKeeper(t)
		setEmissionPolicy(t, ctx, registry, 999_937, "0.3")
		keepertest.SeedSubnet(t, ctx, registry, 1, "1")
		for uid := uint32(1); uid <= 3; uid++ {
			keepertest.SeedMiner(t, ctx, registry, 1, uid)
		}
		for _, validator := range []uint32{10, 20, 30} {
			keepertest.SeedValidator(t, ctx, registry, 1, validator)
		}
		for _, i := range order {
			require.NoError(t, k.SubmitWeights(ctx, 1, 0, submissions[i].validator, submissions[i].vector))
		}
		require.NoError(t, k.OnEpochBoundary(ctx, 0))

		global, err := k.GetGlobalWeights(ctx, 1, 0)
		require.NoError(t, err)
		record, err := k.GetRewardRecord(ctx, 1, 0)
		require.NoError(t, err)
		reps := make(map[uint32]math.LegacyDec)
		for _, validator := range []uint32{10, 20, 30} {
			rep, err := k.GetReputation(ctx, 1, validator)
			require.NoError(t, err)
			reps[validator] = rep
		}
		return global, record, reps
	}

	globalA, recordA, repsA := run([]int{0, 1, 2})
	globalB, recordB, repsB := run([]int{2, 0, 1})

	require.True(t, globalA.Equal(globalB))
	require.Equal(t, recordA.MinerRewards, recordB.MinerRewards)
	require.Equal(t, recordA.ValidatorRewards, recordB.ValidatorRewards)
	require.True(t, recordA.Burned.Equal(recordB.Burned))
	for validator, rep := range repsA {
		require.True(t, rep.Equal(repsB[validator]), "validator %d reputation diverged", validator)
	}
}

func requireDecNear(t *testing.T, want, got math.LegacyDec) {
	t.Helper()
	tolerance := math.LegacyNewDecWithPrec(1, 9)
	require.True(t, got.Sub(want).Abs().LTE(tolerance), "want %s within 1e-9, got %s", want, got)
}

package keeper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	keepertest "github.com/0xDevNinja/neuro-mesh/testutil/keeper"
	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

func TestSetWeightVectorEnforcesMinerBound(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")

	// The store's own bound is independent of submission validation: no
	// miner registration is consulted here, only the entry count.
	oversized := make([]types.WeightEntry, 65)
	for i := range oversized {
		oversized[i] = entry(uint32(i+1), 1)
	}
	err := k.SetWeightVector(ctx, 1, 0, 10, types.WeightVector{Entries: oversized})
	require.ErrorIs(t, err, types.ErrStorageOverflow)

	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 10, types.WeightVector{Entries: oversized[:64]}))
}

func TestSetWeightVectorUnknownSubnet(t *testing.T) {
	k, _, ctx := keepertest.ConsensusKeeper(t)

	err := k.SetWeightVector(ctx, 9, 0, 10, vec(entry(1, 1)))
	require.ErrorIs(t, err, types.ErrUnknownSubnet)
}

func TestSetWeightVectorRejectsMalformed(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")

	err := k.SetWeightVector(ctx, 1, 0, 10, vec(entry(2, 1), entry(2, 1)))
	require.ErrorIs(t, err, types.ErrInvalidVector)
}

func TestGetWeightVectorMissing(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")

	_, found, err := k.GetWeightVector(ctx, 1, 0, 10)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCollectEpochSubmissionsOrderAndFilter(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")
	keepertest.SeedSubnet(t, ctx, registry, 2, "0")

	// Writes land out of validator order, across epochs and subnets.
	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 30, vec(entry(1, 30))))
	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 10, vec(entry(1, 10))))
	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 20, vec(entry(1, 20))))
	require.NoError(t, k.SetWeightVector(ctx, 1, 1, 40, vec(entry(1, 40))))
	require.NoError(t, k.SetWeightVector(ctx, 2, 0, 50, vec(entry(1, 50))))

	submissions, err := k.CollectEpochSubmissions(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, []types.ValidatorSubmission{
		{ValidatorId: 10, Vector: vec(entry(1, 10))},
		{ValidatorId: 20, Vector: vec(entry(1, 20))},
		{ValidatorId: 30, Vector: vec(entry(1, 30))},
	}, submissions)

	submissions, err = k.CollectEpochSubmissions(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []types.ValidatorSubmission{
		{ValidatorId: 40, Vector: vec(entry(1, 40))},
	}, submissions)

	submissions, err = k.CollectEpochSubmissions(ctx, 1, 2)
	require.NoError(t, err)
	require.Empty(t, submissions)
}

func TestIterateEpochSubmissionsEarlyStop(t *testing.T) {
	k, registry, ctx := keepertest.ConsensusKeeper(t)
	keepertest.SeedSubnet(t, ctx, registry, 1, "1")

	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 30, vec(entry(1, 30))))
	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 10, vec(entry(1, 10))))
	require.NoError(t, k.SetWeightVector(ctx, 1, 0, 20, vec(entry(1, 20))))

	var seen []uint32
	err := k.IterateEpochSubmissions(ctx, 1, 0, func(validatorID uint32, vector types.WeightVector) (bool, error) {
		seen = append(seen, validatorID)
		return len(seen) == 2, nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 20}, seen)
}

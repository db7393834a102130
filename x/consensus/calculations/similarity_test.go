package calculations

import (
	"sort"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func globalFrom(pairs map[uint32]string) *GlobalWeights {
	g := &GlobalWeights{Weights: make(map[uint32]math.LegacyDec, len(pairs))}
	for uid, s := range pairs {
		g.Uids = append(g.Uids, uid)
		g.Weights[uid] = dec(s)
	}
	sort.Slice(g.Uids, func(i, j int) bool { return g.Uids[i] < g.Uids[j] })
	return g
}

func TestCosineSimilarityParallelVectors(t *testing.T) {
	v := vector(entry(1, 32768), entry(2, 32767))
	g := globalFrom(map[uint32]string{1: "32768", 2: "32767"})

	sim, err := CosineSimilarity(v, g)
	require.NoError(t, err)
	require.True(t, sim.Sub(math.LegacyOneDec()).Abs().LTE(dec("0.000000001")),
		"similarity %s not within tolerance of 1", sim)
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	v := vector(entry(1, 600), entry(2, 400))
	scaled := globalFrom(map[uint32]string{1: "0.6", 2: "0.4"})

	sim, err := CosineSimilarity(v, scaled)
	require.NoError(t, err)
	require.True(t, sim.Sub(math.LegacyOneDec()).Abs().LTE(dec("0.000000001")),
		"similarity %s not within tolerance of 1", sim)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	v := vector(entry(1, 65535))
	g := globalFrom(map[uint32]string{2: "1"})

	sim, err := CosineSimilarity(v, g)
	require.NoError(t, err)
	require.True(t, sim.IsZero(), "got %s", sim)
}

func TestCosineSimilarityZeroSides(t *testing.T) {
	g := globalFrom(map[uint32]string{1: "1"})

	sim, err := CosineSimilarity(vector(), g)
	require.NoError(t, err)
	require.True(t, sim.IsZero())

	sim, err = CosineSimilarity(vector(entry(1, 65535)), &GlobalWeights{})
	require.NoError(t, err)
	require.True(t, sim.IsZero())
}

func TestCosineSimilarityPartialOverlap(t *testing.T) {
	// 45 degrees: v on uid 1 only, g evenly split over uids 1 and 2.
	v := vector(entry(1, 65535))
	g := globalFrom(map[uint32]string{1: "0.5", 2: "0.5"})

	sim, err := CosineSimilarity(v, g)
	require.NoError(t, err)
	// 1/sqrt(2)
	require.True(t, sim.Sub(dec("0.707106781186547524")).Abs().LTE(dec("0.000000001")),
		"got %s", sim)
}

func TestUpdateReputationStep(t *testing.T) {
	alpha := dec("0.9")

	next := UpdateReputation(dec("0.5"), math.LegacyOneDec(), alpha)
	require.True(t, next.Equal(dec("0.55")), "got %s", next)

	next = UpdateReputation(dec("0.5"), math.LegacyZeroDec(), alpha)
	require.True(t, next.Equal(dec("0.45")), "got %s", next)
}

func TestUpdateReputationClamps(t *testing.T) {
	alpha := dec("0.9")
	require.True(t, UpdateReputation(dec("2"), dec("2"), alpha).Equal(math.LegacyOneDec()))
	require.True(t, UpdateReputation(dec("-1"), math.LegacyZeroDec(), alpha).IsZero())
}

func TestUpdateReputationStaysInUnitInterval(t *testing.T) {
	alpha := dec("0.9")

	rep := dec("0.5")
	for i := 0; i < 50; i++ {
		prev := rep
		rep = UpdateReputation(rep, math.LegacyOneDec(), alpha)
		require.True(t, rep.GTE(prev), "reputation regressed at step %d", i)
		require.True(t, rep.LTE(math.LegacyOneDec()), "reputation exceeded 1 at step %d", i)
	}

	rep = dec("0.5")
	for i := 0; i < 50; i++ {
		prev := rep
		rep = UpdateReputation(rep, math.LegacyZeroDec(), alpha)
		require.True(t, rep.LTE(prev), "reputation rose at step %d", i)
		require.True(t, rep.GTE(math.LegacyZeroDec()), "reputation negative at step %d", i)
	}
}

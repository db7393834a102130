package calculations

import (
	"sort"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// GlobalWeights is the Dec-valued consensus distribution over miners for
// one subnet epoch. Uids is ascending and carries every miner with a
// non-zero aggregated weight.
type GlobalWeights struct {
	Uids    []uint32
	Weights map[uint32]math.LegacyDec
}

// Weight returns the aggregated weight for uid, zero if absent.
func (g *GlobalWeights) Weight(uid uint32) math.LegacyDec {
	if w, ok := g.Weights[uid]; ok {
		return w
	}
	return math.LegacyZeroDec()
}

// Total sums the aggregated weights.
func (g *GlobalWeights) Total() math.LegacyDec {
	total := math.LegacyZeroDec()
	for _, uid := range g.Uids {
		total = total.Add(g.Weights[uid])
	}
	return total
}

// IsZero reports whether the distribution is empty.
func (g *GlobalWeights) IsZero() bool {
	return len(g.Uids) == 0
}

// Quantize renders the distribution as a stored vector on the fixed-point
// scale, using the same largest-remainder rounding as submissions.
func (g *GlobalWeights) Quantize() types.WeightVector {
	if g.IsZero() {
		return types.WeightVector{}
	}
	total := g.Total()
	if !total.IsPositive() {
		return types.WeightVector{}
	}
	return quantizeToScale(g.Uids, g.Weights, total)
}

// WeightAggregator computes the reputation-weighted consensus vector for
// one subnet epoch. Reputations are the scores as of the start of the
// epoch; validators missing from the snapshot enter at the neutral default.
type WeightAggregator struct {
	SubnetId    uint32
	Epoch       uint64
	Submissions []types.ValidatorSubmission
	Reputations map[uint32]math.LegacyDec
	Logger      types.ConsensusLogger
}

// NewWeightAggregator creates a new WeightAggregator instance
func NewWeightAggregator(
	subnetID uint32,
	epoch uint64,
	submissions []types.ValidatorSubmission,
	reputations map[uint32]math.LegacyDec,
	logger types.ConsensusLogger,
) *WeightAggregator {
	return &WeightAggregator{
		SubnetId:    subnetID,
		Epoch:       epoch,
		Submissions: submissions,
		Reputations: reputations,
		Logger:      logger,
	}
}

// Aggregate computes W_global[m] = sum_v rep[v]*W_v[m] / sum_v rep[v].
// Accumulation order is fixed (validators ascending, then UIDs ascending)
// so replicas reach bit-identical results. With no submissions it returns
// an empty distribution and ErrEmptySubnetEpoch, which the epoch pipeline
// treats as non-fatal.
func (wa *WeightAggregator) Aggregate() (*GlobalWeights, error) {
	if len(wa.Submissions) == 0 {
		wa.Logger.LogInfo("Aggregate: no submissions for subnet epoch", types.Epoch,
			"subnet", wa.SubnetId, "epoch", wa.Epoch)
		return &GlobalWeights{Weights: map[uint32]math.LegacyDec{}},
			sdkerrors.Wrapf(types.ErrEmptySubnetEpoch, "subnet %d epoch %d", wa.SubnetId, wa.Epoch)
	}

	submissions := make([]types.ValidatorSubmission, len(wa.Submissions))
	copy(submissions, wa.Submissions)
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ValidatorId < submissions[j].ValidatorId })

	repTotal := math.LegacyZeroDec()
	reps := make([]math.LegacyDec, len(submissions))
	for i, sub := range submissions {
		rep, ok := wa.Reputations[sub.ValidatorId]
		if !ok || rep.IsNil() {
			rep = types.DefaultReputation
		}
		reps[i] = rep
		repTotal = repTotal.Add(rep)
	}
	if repTotal.IsZero() {
		// All reputations truncated to zero: fall back to an unweighted
		// mean so the epoch still closes.
		wa.Logger.LogWarn("Aggregate: reputation total is zero, using equal weights", types.Epoch,
			"subnet", wa.SubnetId, "epoch", wa.Epoch, "validators", len(submissions))
		one := math.LegacyOneDec()
		for i := range reps {
			reps[i] = one
		}
		repTotal = math.LegacyNewDec(int64(len(reps)))
	}

	accum := make(map[uint32]math.LegacyDec)
	for i, sub := range submissions {
		for _, e := range sub.Vector.Entries {
			contribution := reps[i].MulInt64(int64(e.Weight))
			if prev, ok := accum[e.Uid]; ok {
				accum[e.Uid] = prev.Add(contribution)
			} else {
				accum[e.Uid] = contribution
			}
		}
	}

	uids := make([]uint32, 0, len(accum))
	for uid := range accum {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	denom := repTotal.MulInt64(types.WeightScale)
	weights := make(map[uint32]math.LegacyDec, len(uids))
	out := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		w := accum[uid].Quo(denom)
		if w.IsZero() {
			continue
		}
		weights[uid] = w
		out = append(out, uid)
	}

	wa.Logger.LogDebug("Aggregate: computed global weights", types.Epoch,
		"subnet", wa.SubnetId, "epoch", wa.Epoch, "validators", len(submissions), "miners", len(out))
	return &GlobalWeights{Uids: out, Weights: weights}, nil
}

package calculations

import (
	"sort"

	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// PearsonCorrelation computes the correlation between two stored vectors
// over the union of their supports, absent UIDs counting as zero. The
// second return is false when the correlation is undefined (either side
// constant over the union). Byte-identical vectors short-circuit to 1 so
// duplicates are always caught, zero variance or not.
func PearsonCorrelation(a, b types.WeightVector) (math.LegacyDec, bool, error) {
	if a.IsZero() && b.IsZero() {
		return math.LegacyZeroDec(), false, nil
	}
	if a.Equal(b) {
		return math.LegacyOneDec(), true, nil
	}

	var n, sx, sy, sxy, sxx, syy int64
	i, j := 0, 0
	for i < len(a.Entries) || j < len(b.Entries) {
		var x, y int64
		switch {
		case j >= len(b.Entries) || (i < len(a.Entries) && a.Entries[i].Uid < b.Entries[j].Uid):
			x = int64(a.Entries[i].Weight)
			i++
		case i >= len(a.Entries) || b.Entries[j].Uid < a.Entries[i].Uid:
			y = int64(b.Entries[j].Weight)
			j++
		default:
			x = int64(a.Entries[i].Weight)
			y = int64(b.Entries[j].Weight)
			i++
			j++
		}
		n++
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
		syy += y * y
	}

	// n*sxy and sx*sy overflow int64 for large supports, so the moments
	// move into big integers here.
	bn, bsx, bsy := math.NewInt(n), math.NewInt(sx), math.NewInt(sy)
	num := bn.Mul(math.NewInt(sxy)).Sub(bsx.Mul(bsy))
	varX := bn.Mul(math.NewInt(sxx)).Sub(bsx.Mul(bsx))
	varY := bn.Mul(math.NewInt(syy)).Sub(bsy.Mul(bsy))
	if varX.IsZero() || varY.IsZero() {
		return math.LegacyZeroDec(), false, nil
	}

	denom, err := math.LegacyNewDecFromInt(varX.Mul(varY)).ApproxSqrt()
	if err != nil {
		return math.LegacyZeroDec(), false, err
	}
	if denom.IsZero() {
		return math.LegacyZeroDec(), false, nil
	}
	r := math.LegacyNewDecFromInt(num).Quo(denom)
	one := math.LegacyOneDec()
	if r.GT(one) {
		r = one
	}
	if r.LT(one.Neg()) {
		r = one.Neg()
	}
	return r, true, nil
}

// CollusionScanner flags validator pairs whose submissions correlate above
// the threshold, and clusters of such pairs as potential cartels. Scanning
// is advisory: the caller records the flags and nothing else consumes them
// inside the epoch pipeline.
type CollusionScanner struct {
	SubnetId      uint32
	Epoch         uint64
	Submissions   []types.ValidatorSubmission
	Threshold     math.LegacyDec
	MinCartelSize uint32
	Logger        types.ConsensusLogger
}

// NewCollusionScanner creates a new CollusionScanner instance
func NewCollusionScanner(
	subnetID uint32,
	epoch uint64,
	submissions []types.ValidatorSubmission,
	threshold math.LegacyDec,
	minCartelSize uint32,
	logger types.ConsensusLogger,
) *CollusionScanner {
	return &CollusionScanner{
		SubnetId:      subnetID,
		Epoch:         epoch,
		Submissions:   submissions,
		Threshold:     threshold,
		MinCartelSize: minCartelSize,
		Logger:        logger,
	}
}

type pairCorrelation struct {
	a, b uint32
	r    math.LegacyDec
}

// Scan emits pair flags for every correlated pair and cartel flags for
// connected components of the correlation graph with at least
// MinCartelSize members. Flag order is deterministic: pairs by ascending
// IDs first, then cartels by their lowest member.
func (cs *CollusionScanner) Scan() ([]types.CollusionFlag, error) {
	if len(cs.Submissions) < 2 {
		return nil, nil
	}

	submissions := make([]types.ValidatorSubmission, len(cs.Submissions))
	copy(submissions, cs.Submissions)
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ValidatorId < submissions[j].ValidatorId })

	defined := make(map[uint64]math.LegacyDec)
	var edges []pairCorrelation
	for i := 0; i < len(submissions); i++ {
		for j := i + 1; j < len(submissions); j++ {
			r, ok, err := PearsonCorrelation(submissions[i].Vector, submissions[j].Vector)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			a, b := submissions[i].ValidatorId, submissions[j].ValidatorId
			defined[pairKey(a, b)] = r
			if r.GT(cs.Threshold) {
				edges = append(edges, pairCorrelation{a: a, b: b, r: r})
			}
		}
	}

	var flags []types.CollusionFlag
	parent := make(map[uint32]uint32)
	for _, e := range edges {
		flags = append(flags, types.CollusionFlag{
			SubnetId:    cs.SubnetId,
			Epoch:       cs.Epoch,
			Validators:  []uint32{e.a, e.b},
			Correlation: e.r,
		})
		union(parent, e.a, e.b)
	}

	clusters := make(map[uint32][]uint32)
	for v := range parent {
		root := find(parent, v)
		clusters[root] = append(clusters[root], v)
	}
	roots := make([]uint32, 0, len(clusters))
	for root, members := range clusters {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		clusters[root] = members
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return clusters[roots[i]][0] < clusters[roots[j]][0] })

	for _, root := range roots {
		members := clusters[root]
		if uint32(len(members)) < cs.MinCartelSize {
			continue
		}
		mean := meanPairwise(members, defined)
		flags = append(flags, types.CollusionFlag{
			SubnetId:    cs.SubnetId,
			Epoch:       cs.Epoch,
			Validators:  members,
			Correlation: mean,
		})
		cs.Logger.LogWarn("Scan: correlated cluster detected", types.Collusion,
			"subnet", cs.SubnetId, "epoch", cs.Epoch, "size", len(members), "confidence", mean.String())
	}
	return flags, nil
}

// meanPairwise averages the computed correlations over every unordered
// member pair; pairs without a defined correlation contribute zero.
func meanPairwise(members []uint32, defined map[uint64]math.LegacyDec) math.LegacyDec {
	pairCount := int64(len(members)) * int64(len(members)-1) / 2
	if pairCount == 0 {
		return math.LegacyZeroDec()
	}
	sum := math.LegacyZeroDec()
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if r, ok := defined[pairKey(members[i], members[j])]; ok {
				sum = sum.Add(r)
			}
		}
	}
	return sum.QuoInt64(pairCount)
}

func pairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

func find(parent map[uint32]uint32, v uint32) uint32 {
	root, ok := parent[v]
	if !ok {
		parent[v] = v
		return v
	}
	if root == v {
		return v
	}
	top := find(parent, root)
	parent[v] = top
	return top
}

func union(parent map[uint32]uint32, a, b uint32) {
	ra, rb := find(parent, a), find(parent, b)
	if ra == rb {
		return
	}
	// Deterministic union: the smaller ID becomes the root.
	if ra < rb {
		parent[rb] = ra
	} else {
		parent[ra] = rb
	}
}

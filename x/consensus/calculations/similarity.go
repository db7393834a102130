package calculations

import (
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// CosineSimilarity measures the agreement between a validator's stored
// vector and the epoch's global distribution, in [0,1]. Cosine is invariant
// under scaling, so the stored fixed-point weights are used as-is. Either
// side having zero magnitude yields zero.
func CosineSimilarity(v types.WeightVector, g *GlobalWeights) (math.LegacyDec, error) {
	zero := math.LegacyZeroDec()
	if v.IsZero() || g.IsZero() {
		return zero, nil
	}

	dot := math.LegacyZeroDec()
	vNormSq := math.LegacyZeroDec()
	for _, e := range v.Entries {
		w := math.LegacyNewDec(int64(e.Weight))
		vNormSq = vNormSq.Add(w.Mul(w))
		if gw, ok := g.Weights[e.Uid]; ok {
			dot = dot.Add(w.Mul(gw))
		}
	}
	gNormSq := math.LegacyZeroDec()
	for _, uid := range g.Uids {
		gw := g.Weights[uid]
		gNormSq = gNormSq.Add(gw.Mul(gw))
	}
	if vNormSq.IsZero() || gNormSq.IsZero() || dot.IsZero() {
		return zero, nil
	}

	vNorm, err := vNormSq.ApproxSqrt()
	if err != nil {
		return zero, err
	}
	gNorm, err := gNormSq.ApproxSqrt()
	if err != nil {
		return zero, err
	}
	denom := vNorm.Mul(gNorm)
	if denom.IsZero() {
		return zero, nil
	}

	sim := dot.Quo(denom)
	if sim.GT(math.LegacyOneDec()) {
		sim = math.LegacyOneDec()
	}
	if sim.IsNegative() {
		sim = zero
	}
	return sim, nil
}

// UpdateReputation applies one EMA step rep' = alpha*rep + (1-alpha)*sim
// and clamps the result to [0,1].
func UpdateReputation(rep, sim, alpha math.LegacyDec) math.LegacyDec {
	one := math.LegacyOneDec()
	updated := alpha.Mul(rep).Add(one.Sub(alpha).Mul(sim))
	if updated.IsNegative() {
		return math.LegacyZeroDec()
	}
	if updated.GT(one) {
		return one
	}
	return updated
}

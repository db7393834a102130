package types

import (
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// DefaultReputation is the neutral score assigned on a validator's first
// accepted submission for a subnet.
var DefaultReputation = math.LegacyNewDecWithPrec(5, 1)

// Params are the replicated consensus parameters. They are part of state,
// not node configuration: every replica must apply identical values or the
// epoch outputs diverge.
type Params struct {
	// Alpha is the reputation EMA decay: rep' = alpha*rep + (1-alpha)*sim.
	Alpha math.LegacyDec
	// CollusionThreshold is the pairwise correlation above which a pair of
	// validators is flagged.
	CollusionThreshold math.LegacyDec
	// MinCartelSize is the smallest correlated cluster reported as a cartel.
	MinCartelSize uint32
	// NormalizationTolerance bounds |sum(weights)/WeightScale - 1| for any
	// accepted vector. Quantization keeps the sum exact, so this is a
	// verification bound rather than an operating margin.
	NormalizationTolerance math.LegacyDec
}

func DefaultParams() Params {
	return Params{
		Alpha:                  math.LegacyNewDecWithPrec(9, 1),  // 0.9
		CollusionThreshold:     math.LegacyNewDecWithPrec(95, 2), // 0.95
		MinCartelSize:          3,
		NormalizationTolerance: math.LegacyNewDecWithPrec(1, 4), // 1e-4
	}
}

// Validate rejects parameter sets that would break the update rules.
func (p Params) Validate() error {
	if p.Alpha.IsNil() || !p.Alpha.IsPositive() || p.Alpha.GTE(math.LegacyOneDec()) {
		return sdkerrors.Wrap(ErrInvalidParams, "alpha must be in (0,1)")
	}
	if p.CollusionThreshold.IsNil() || p.CollusionThreshold.IsNegative() || p.CollusionThreshold.GT(math.LegacyOneDec()) {
		return sdkerrors.Wrap(ErrInvalidParams, "collusion threshold must be in [0,1]")
	}
	if p.MinCartelSize < 2 {
		return sdkerrors.Wrap(ErrInvalidParams, "min cartel size must be at least 2")
	}
	if p.NormalizationTolerance.IsNil() || p.NormalizationTolerance.IsNegative() {
		return sdkerrors.Wrap(ErrInvalidParams, "normalization tolerance must be non-negative")
	}
	return nil
}

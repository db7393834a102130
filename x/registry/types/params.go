package types

import (
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Params are the registry's emission-policy inputs.
type Params struct {
	// BaseEpochEmission is the total amount emitted across all subnets each
	// epoch; a subnet receives its EmissionShare of it.
	BaseEpochEmission math.Int `json:"base_epoch_emission"`
	// DefaultValidatorShare is the fraction of a subnet's emission paid to
	// validators when the subnet does not override it.
	DefaultValidatorShare math.LegacyDec `json:"default_validator_share"`
}

func DefaultParams() Params {
	return Params{
		BaseEpochEmission:     math.NewInt(1_000_000_000),
		DefaultValidatorShare: math.LegacyNewDecWithPrec(25, 2), // 0.25
	}
}

// Validate rejects emission policies the reward calculator cannot honor.
func (p Params) Validate() error {
	if p.BaseEpochEmission.IsNil() || p.BaseEpochEmission.IsNegative() {
		return sdkerrors.Wrap(ErrInvalidParams, "base epoch emission must be non-negative")
	}
	if p.DefaultValidatorShare.IsNil() || p.DefaultValidatorShare.IsNegative() ||
		p.DefaultValidatorShare.GT(math.LegacyOneDec()) {
		return sdkerrors.Wrap(ErrInvalidParams, "default validator share must be in [0,1]")
	}
	return nil
}

package types

import (
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// TaskType is the inference domain a subnet serves.
type TaskType int32

const (
	TaskCodeGen TaskType = iota
	TaskImageGen
	TaskProteinFolding
	TaskCustom
)

var taskTypeNames = map[TaskType]string{
	TaskCodeGen:        "codegen",
	TaskImageGen:       "imagegen",
	TaskProteinFolding: "proteinfolding",
	TaskCustom:         "custom",
}

func (t TaskType) String() string {
	if name, ok := taskTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTaskType resolves a configuration string into a TaskType.
func ParseTaskType(s string) (TaskType, bool) {
	for t, name := range taskTypeNames {
		if name == s {
			return t, true
		}
	}
	return TaskCustom, false
}

// SubnetStatus is the lifecycle state of a subnet. Retired subnets keep
// their history but reject submissions and drop out of epoch processing.
type SubnetStatus int32

const (
	SubnetActive SubnetStatus = iota
	SubnetRetired
)

func (s SubnetStatus) String() string {
	switch s {
	case SubnetActive:
		return "active"
	case SubnetRetired:
		return "retired"
	}
	return "unknown"
}

// SubnetInfo is the registry's record of one subnet. EmissionShare is the
// subnet's fraction of the global epoch emission; ValidatorShare, when set,
// overrides the default split between miners and validators.
type SubnetInfo struct {
	Id                uint32          `json:"id"`
	Name              string          `json:"name"`
	TaskType          TaskType        `json:"task_type"`
	EmissionShare     math.LegacyDec  `json:"emission_share"`
	ValidatorShare    *math.LegacyDec `json:"validator_share,omitempty"`
	MinStakeMiner     math.Int        `json:"min_stake_miner"`
	MinStakeValidator math.Int        `json:"min_stake_validator"`
	MaxMiners         uint16          `json:"max_miners"`
	MaxValidators     uint16          `json:"max_validators"`
	Owner             string          `json:"owner"`
	Status            SubnetStatus    `json:"status"`
}

// Validate checks the structural invariants of a subnet definition.
func (s SubnetInfo) Validate() error {
	if s.Name == "" {
		return sdkerrors.Wrap(ErrInvalidSubnet, "name must not be empty")
	}
	if s.Owner == "" {
		return sdkerrors.Wrap(ErrInvalidSubnet, "owner must not be empty")
	}
	if s.EmissionShare.IsNil() || s.EmissionShare.IsNegative() || s.EmissionShare.GT(math.LegacyOneDec()) {
		return sdkerrors.Wrap(ErrInvalidSubnet, "emission share must be in [0,1]")
	}
	if s.ValidatorShare != nil &&
		(s.ValidatorShare.IsNegative() || s.ValidatorShare.GT(math.LegacyOneDec())) {
		return sdkerrors.Wrap(ErrInvalidSubnet, "validator share must be in [0,1]")
	}
	if s.MinStakeMiner.IsNil() || s.MinStakeMiner.IsNegative() ||
		s.MinStakeValidator.IsNil() || s.MinStakeValidator.IsNegative() {
		return sdkerrors.Wrap(ErrInvalidSubnet, "minimum stakes must be non-negative")
	}
	if s.MaxMiners == 0 || s.MaxValidators == 0 {
		return sdkerrors.Wrap(ErrInvalidSubnet, "participant limits must be positive")
	}
	return nil
}

// Participant is one registered miner or validator on a subnet. Stake is
// the amount the ledger reported at registration; the consensus core reads
// it for eligibility gating and never mutates it.
type Participant struct {
	Uid         uint32                         `json:"uid"`
	Account     string                         `json:"account"`
	Role        consensustypes.ParticipantRole `json:"role"`
	Stake       math.Int                       `json:"stake"`
	Active      bool                           `json:"active"`
	JoinedEpoch uint64                         `json:"joined_epoch"`
}

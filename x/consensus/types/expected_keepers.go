package types

import (
	"context"

	"cosmossdk.io/math"
)

// ParticipantRole distinguishes the two registered roles on a subnet.
type ParticipantRole uint32

const (
	RoleMiner ParticipantRole = iota + 1
	RoleValidator
)

func (r ParticipantRole) String() string {
	switch r {
	case RoleMiner:
		return "miner"
	case RoleValidator:
		return "validator"
	}
	return "unknown"
}

// SubnetMeta is the registry-owned, immutable-per-epoch view of a subnet
// that the consensus core reads.
type SubnetMeta struct {
	Id                uint32
	Active            bool
	MaxMiners         uint16
	MaxValidators     uint16
	MinStakeMiner     math.Int
	MinStakeValidator math.Int
}

// RegistryView is the subnet/participant read surface provided by the
// registry module.
type RegistryView interface {
	// SubnetMeta returns the subnet view and whether the subnet exists.
	SubnetMeta(ctx context.Context, subnetID uint32) (SubnetMeta, bool, error)
	// IsActiveParticipant reports whether uid is registered and active for
	// the role on the subnet.
	IsActiveParticipant(ctx context.Context, subnetID uint32, uid uint32, role ParticipantRole) (bool, error)
	// ActiveSubnets returns the ascending IDs of all active subnets.
	ActiveSubnets(ctx context.Context) ([]uint32, error)
}

// LedgerView provides stake lookups for eligibility gating. The consensus
// core never mutates stake.
type LedgerView interface {
	StakeOf(ctx context.Context, subnetID uint32, uid uint32, role ParticipantRole) (math.Int, error)
}

// EmissionSchedule converts the global emission policy into per-subnet
// epoch amounts.
type EmissionSchedule interface {
	// SubnetEmission is the total amount emitted to the subnet for the epoch.
	SubnetEmission(ctx context.Context, subnetID uint32, epoch uint64) (math.Int, error)
	// ValidatorEmissionShare is the fraction of the subnet emission paid to
	// validators.
	ValidatorEmissionShare(ctx context.Context, subnetID uint32) (math.LegacyDec, error)
}

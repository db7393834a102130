package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the module name
	ModuleName = "consensus"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// WeightScale is the fixed-point scale of stored weights: a weight of
// WeightScale represents 1.0. Vectors are quantized so that the entries of
// every non-degenerate vector sum to exactly WeightScale.
const WeightScale = 65535

// MaxVectorEntries is the hard ceiling on entries in a single weight vector,
// independent of any subnet's own bound. It matches the u16 entry count of
// the interchange record layout.
const MaxVectorEntries = 65535

var (
	ParamsPrefix        = collections.NewPrefix(0)
	CurrentEpochPrefix  = collections.NewPrefix(1)
	WeightVectorPrefix  = collections.NewPrefix(2)
	GlobalWeightPrefix  = collections.NewPrefix(3)
	ReputationPrefix    = collections.NewPrefix(4)
	RewardRecordPrefix  = collections.NewPrefix(5)
	CollusionFlagPrefix = collections.NewPrefix(6)
)

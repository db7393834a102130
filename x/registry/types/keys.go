package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the module name
	ModuleName = "registry"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

var (
	ParamsPrefix       = collections.NewPrefix(0)
	SubnetsPrefix      = collections.NewPrefix(1)
	ParticipantsPrefix = collections.NewPrefix(2)
)

package types

import sdkerrors "cosmossdk.io/errors"

// x/consensus module sentinel errors
var (
	ErrUnknownSubnet      = sdkerrors.Register(ModuleName, 2, "unknown subnet")
	ErrInactiveSubnet     = sdkerrors.Register(ModuleName, 3, "subnet is not active")
	ErrUnknownParticipant = sdkerrors.Register(ModuleName, 4, "participant not registered or not active")
	ErrEpochMismatch      = sdkerrors.Register(ModuleName, 5, "epoch is not open for this operation")
	ErrVectorTooLarge     = sdkerrors.Register(ModuleName, 6, "weight vector exceeds subnet miner bound")
	ErrUnknownMiner       = sdkerrors.Register(ModuleName, 7, "weight entry references an unknown miner")
	ErrDegenerateWeights  = sdkerrors.Register(ModuleName, 8, "weights are negative or sum to zero")
	ErrStorageOverflow    = sdkerrors.Register(ModuleName, 9, "stored vector would exceed subnet miner bound")
	ErrEmptySubnetEpoch   = sdkerrors.Register(ModuleName, 10, "no submissions for subnet epoch")
	ErrCollusionScanFail  = sdkerrors.Register(ModuleName, 11, "collusion scan failed")
	ErrNotYetComputed     = sdkerrors.Register(ModuleName, 12, "epoch result not yet computed")
	ErrInvalidVector      = sdkerrors.Register(ModuleName, 13, "malformed weight vector")
	ErrInvalidParams      = sdkerrors.Register(ModuleName, 14, "invalid module parameters")
)

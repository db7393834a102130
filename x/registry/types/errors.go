package types

import sdkerrors "cosmossdk.io/errors"

// x/registry module sentinel errors
var (
	ErrSubnetExists          = sdkerrors.Register(ModuleName, 2, "subnet already registered")
	ErrUnknownSubnet         = sdkerrors.Register(ModuleName, 3, "unknown subnet")
	ErrSubnetRetired         = sdkerrors.Register(ModuleName, 4, "subnet is retired")
	ErrNotOwner              = sdkerrors.Register(ModuleName, 5, "caller does not own the subnet")
	ErrInsufficientStake     = sdkerrors.Register(ModuleName, 6, "stake below subnet minimum")
	ErrSubnetFull            = sdkerrors.Register(ModuleName, 7, "subnet participant limit reached")
	ErrParticipantExists     = sdkerrors.Register(ModuleName, 8, "participant already registered")
	ErrUnknownParticipant    = sdkerrors.Register(ModuleName, 9, "unknown participant")
	ErrInvalidParams         = sdkerrors.Register(ModuleName, 10, "invalid registry parameters")
	ErrEmissionShareExceeded = sdkerrors.Register(ModuleName, 11, "active emission shares would exceed one")
	ErrInvalidSubnet         = sdkerrors.Register(ModuleName, 12, "invalid subnet definition")
)

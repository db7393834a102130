package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
	"github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

// CreateSubnet registers a new subnet. The combined emission share of all
// active subnets must stay within one.
func (k Keeper) CreateSubnet(ctx context.Context, info types.SubnetInfo) error {
	if err := info.Validate(); err != nil {
		k.LogError("CreateSubnet: invalid definition", consensustypes.Registry, "subnet", info.Id, "error", err)
		return err
	}
	exists, err := k.Subnets.Has(ctx, info.Id)
	if err != nil {
		return err
	}
	if exists {
		k.LogError("CreateSubnet: id already taken", consensustypes.Registry, "subnet", info.Id)
		return sdkerrors.Wrapf(types.ErrSubnetExists, "subnet %d", info.Id)
	}
	if err := k.checkEmissionBudget(ctx, info.Id, info.EmissionShare); err != nil {
		return err
	}
	info.Status = types.SubnetActive
	if err := k.Subnets.Set(ctx, info.Id, info); err != nil {
		return err
	}
	k.LogInfo("CreateSubnet: subnet registered", consensustypes.Registry,
		"subnet", info.Id, "name", info.Name, "task", info.TaskType.String(),
		"emissionShare", info.EmissionShare.String(), "owner", info.Owner)
	return nil
}

// UpdateSubnet replaces a subnet's definition. Only the owner may update,
// and the lifecycle status is not touched here (see RetireSubnet).
func (k Keeper) UpdateSubnet(ctx context.Context, actor string, info types.SubnetInfo) error {
	current, err := k.Subnets.Get(ctx, info.Id)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", info.Id)
	}
	if err != nil {
		return err
	}
	if current.Owner != actor {
		k.LogError("UpdateSubnet: caller is not the owner", consensustypes.Registry,
			"subnet", info.Id, "actor", actor, "owner", current.Owner)
		return sdkerrors.Wrapf(types.ErrNotOwner, "subnet %d", info.Id)
	}
	if err := info.Validate(); err != nil {
		return err
	}
	if err := k.checkEmissionBudget(ctx, info.Id, info.EmissionShare); err != nil {
		return err
	}
	info.Status = current.Status
	if err := k.Subnets.Set(ctx, info.Id, info); err != nil {
		return err
	}
	k.LogInfo("UpdateSubnet: subnet updated", consensustypes.Registry, "subnet", info.Id)
	return nil
}

// RetireSubnet takes a subnet out of service. History is kept; submissions
// and epoch processing stop.
func (k Keeper) RetireSubnet(ctx context.Context, actor string, subnetID uint32) error {
	info, err := k.Subnets.Get(ctx, subnetID)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkerrors.Wrapf(types.ErrUnknownSubnet, "subnet %d", subnetID)
	}
	if err != nil {
		return err
	}
	if info.Owner != actor {
		return sdkerrors.Wrapf(types.ErrNotOwner, "subnet %d", subnetID)
	}
	if info.Status == types.SubnetRetired {
		return sdkerrors.Wrapf(types.ErrSubnetRetired, "subnet %d", subnetID)
	}
	info.Status = types.SubnetRetired
	if err := k.Subnets.Set(ctx, subnetID, info); err != nil {
		return err
	}
	k.LogInfo("RetireSubnet: subnet retired", consensustypes.Registry, "subnet", subnetID)
	return nil
}

// GetSubnet returns a subnet definition and whether it exists.
func (k Keeper) GetSubnet(ctx context.Context, subnetID uint32) (types.SubnetInfo, bool, error) {
	info, err := k.Subnets.Get(ctx, subnetID)
	if errors.Is(err, collections.ErrNotFound) {
		return types.SubnetInfo{}, false, nil
	}
	if err != nil {
		return types.SubnetInfo{}, false, err
	}
	return info, true, nil
}

// checkEmissionBudget verifies that the active subnets' emission shares,
// with subnetID's share replaced by the proposed value, sum to at most one.
func (k Keeper) checkEmissionBudget(ctx context.Context, subnetID uint32, share math.LegacyDec) error {
	total := share
	err := k.Subnets.Walk(ctx, nil, func(id uint32, info types.SubnetInfo) (bool, error) {
		if id != subnetID && info.Status == types.SubnetActive {
			total = total.Add(info.EmissionShare)
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if total.GT(math.LegacyOneDec()) {
		return sdkerrors.Wrapf(types.ErrEmissionShareExceeded, "total share %s", total.String())
	}
	return nil
}

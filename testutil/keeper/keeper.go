package keeper

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/0xDevNinja/neuro-mesh/kvstore"
	consensuskeeper "github.com/0xDevNinja/neuro-mesh/x/consensus/keeper"
	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
	registrykeeper "github.com/0xDevNinja/neuro-mesh/x/registry/keeper"
	registrytypes "github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

const (
	Owner     = "owner"
	Account   = "account"
	TestStake = 1_000_000
)

// RegistryKeeper builds a registry keeper over a fresh in-memory store.
func RegistryKeeper(t testing.TB) (registrykeeper.Keeper, context.Context) {
	t.Helper()
	db, err := kvstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	k := registrykeeper.NewKeeper(db.Service(registrytypes.ModuleName), log.NewTestLogger(t))
	return k, context.Background()
}

// ConsensusKeeper builds a consensus keeper wired to a registry keeper,
// both over the same fresh in-memory store.
func ConsensusKeeper(t testing.TB) (consensuskeeper.Keeper, registrykeeper.Keeper, context.Context) {
	t.Helper()
	db, err := kvstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := log.NewTestLogger(t)
	registry := registrykeeper.NewKeeper(db.Service(registrytypes.ModuleName), logger)
	consensus := consensuskeeper.NewKeeper(
		db.Service(consensustypes.ModuleName),
		logger,
		registry,
		registry,
		registry,
		2,
	)
	return consensus, registry, context.Background()
}

// SeedSubnet registers an active subnet with generous default bounds.
func SeedSubnet(t testing.TB, ctx context.Context, registry registrykeeper.Keeper, id uint32, emissionShare string) {
	t.Helper()
	share, err := math.LegacyNewDecFromStr(emissionShare)
	require.NoError(t, err)
	require.NoError(t, registry.CreateSubnet(ctx, registrytypes.SubnetInfo{
		Id:                id,
		Name:              "subnet",
		TaskType:          registrytypes.TaskCodeGen,
		EmissionShare:     share,
		MinStakeMiner:     math.NewInt(1),
		MinStakeValidator: math.NewInt(1),
		MaxMiners:         64,
		MaxValidators:     64,
		Owner:             Owner,
		Status:            registrytypes.SubnetActive,
	}))
}

// SeedMiner registers an active miner with stake above any test minimum.
func SeedMiner(t testing.TB, ctx context.Context, registry registrykeeper.Keeper, subnetID, uid uint32) {
	t.Helper()
	require.NoError(t, registry.RegisterMiner(ctx, subnetID, uid, Account, math.NewInt(TestStake), 0))
}

// SeedValidator registers an active validator with stake above any test
// minimum.
func SeedValidator(t testing.TB, ctx context.Context, registry registrykeeper.Keeper, subnetID, uid uint32) {
	t.Helper()
	require.NoError(t, registry.RegisterValidator(ctx, subnetID, uid, Account, math.NewInt(TestStake), 0))
}

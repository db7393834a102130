package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

type (
	Keeper struct {
		storeService store.KVStoreService
		logger       log.Logger

		registry  types.RegistryView
		ledger    types.LedgerView
		emissions types.EmissionSchedule

		// epochWorkers caps the number of subnets processed concurrently at
		// an epoch boundary.
		epochWorkers int

		// Collections schema and stores
		Schema       collections.Schema
		Params       collections.Item[types.Params]
		CurrentEpoch collections.Item[uint64]
		// WeightVectors: (subnet, epoch, validator) -> normalized vector
		WeightVectors collections.Map[collections.Triple[uint32, uint64, uint32], types.WeightVector]
		// GlobalWeights: (subnet, epoch) -> quantized aggregate vector
		GlobalWeights collections.Map[collections.Pair[uint32, uint64], types.WeightVector]
		// Reputations: (subnet, validator) -> current score
		Reputations collections.Map[collections.Pair[uint32, uint32], math.LegacyDec]
		// RewardRecords: (subnet, epoch) -> reward record
		RewardRecords collections.Map[collections.Pair[uint32, uint64], types.RewardRecord]
		// CollusionFlags: (subnet, epoch, seq) -> flag
		CollusionFlags collections.Map[collections.Triple[uint32, uint64, uint32], types.CollusionFlag]
	}
)

func NewKeeper(
	storeService store.KVStoreService,
	logger log.Logger,
	registry types.RegistryView,
	ledger types.LedgerView,
	emissions types.EmissionSchedule,
	epochWorkers int,
) Keeper {
	if epochWorkers < 1 {
		epochWorkers = 1
	}
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		logger:       logger,
		registry:     registry,
		ledger:       ledger,
		emissions:    emissions,
		epochWorkers: epochWorkers,
		Params: collections.NewItem(
			sb,
			types.ParamsPrefix,
			"params",
			types.ParamsValue,
		),
		CurrentEpoch: collections.NewItem(
			sb,
			types.CurrentEpochPrefix,
			"current_epoch",
			collections.Uint64Value,
		),
		WeightVectors: collections.NewMap(
			sb,
			types.WeightVectorPrefix,
			"weight_vectors",
			collections.TripleKeyCodec(collections.Uint32Key, collections.Uint64Key, collections.Uint32Key),
			types.WeightVectorValue,
		),
		GlobalWeights: collections.NewMap(
			sb,
			types.GlobalWeightPrefix,
			"global_weights",
			collections.PairKeyCodec(collections.Uint32Key, collections.Uint64Key),
			types.WeightVectorValue,
		),
		Reputations: collections.NewMap(
			sb,
			types.ReputationPrefix,
			"reputations",
			collections.PairKeyCodec(collections.Uint32Key, collections.Uint32Key),
			types.DecValue,
		),
		RewardRecords: collections.NewMap(
			sb,
			types.RewardRecordPrefix,
			"reward_records",
			collections.PairKeyCodec(collections.Uint32Key, collections.Uint64Key),
			types.RewardRecordValue,
		),
		CollusionFlags: collections.NewMap(
			sb,
			types.CollusionFlagPrefix,
			"collusion_flags",
			collections.TripleKeyCodec(collections.Uint32Key, collections.Uint64Key, collections.Uint32Key),
			types.CollusionFlagValue,
		),
	}
	schema, err := sb.Build()
	if err != nil {
		//nolint:forbidigo // init code
		panic(err)
	}
	k.Schema = schema
	return k
}

var _ types.ConsensusLogger = Keeper{}

// Logger returns a module-specific logger.
func (k Keeper) Logger() log.Logger {
	return k.logger.With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

func (k Keeper) LogInfo(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Info(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogError(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Error(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogWarn(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Warn(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogDebug(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Debug(msg, append(keyvals, "subsystem", subSystem.String())...)
}

// GetParams returns the stored consensus parameters, falling back to the
// defaults before genesis seeding has run.
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	params, err := k.Params.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultParams(), nil
	}
	if err != nil {
		return types.Params{}, err
	}
	return params, nil
}

// SetParams validates and stores the consensus parameters.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

// GetCurrentEpoch returns the epoch currently accepting submissions. Before
// the first boundary this is epoch zero.
func (k Keeper) GetCurrentEpoch(ctx context.Context) (uint64, error) {
	epoch, err := k.CurrentEpoch.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return epoch, nil
}

func (k Keeper) setCurrentEpoch(ctx context.Context, epoch uint64) error {
	return k.CurrentEpoch.Set(ctx, epoch)
}

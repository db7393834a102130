package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"

	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
	"github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

type Keeper struct {
	storeService store.KVStoreService
	logger       log.Logger

	// Collections schema and stores
	Schema collections.Schema
	Params collections.Item[types.Params]
	// Subnets: subnet id -> definition
	Subnets collections.Map[uint32, types.SubnetInfo]
	// Participants: (subnet, role, uid) -> participant
	Participants collections.Map[collections.Triple[uint32, uint32, uint32], types.Participant]
}

func NewKeeper(storeService store.KVStoreService, logger log.Logger) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		logger:       logger,
		Params: collections.NewItem(
			sb,
			types.ParamsPrefix,
			"params",
			types.ParamsValue,
		),
		Subnets: collections.NewMap(
			sb,
			types.SubnetsPrefix,
			"subnets",
			collections.Uint32Key,
			types.SubnetInfoValue,
		),
		Participants: collections.NewMap(
			sb,
			types.ParticipantsPrefix,
			"participants",
			collections.TripleKeyCodec(collections.Uint32Key, collections.Uint32Key, collections.Uint32Key),
			types.ParticipantValue,
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

// Logger returns a module-specific logger.
func (k Keeper) Logger() log.Logger {
	return k.logger.With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

func (k Keeper) LogInfo(msg string, subSystem consensustypes.SubSystem, keyvals ...interface{}) {
	k.Logger().Info(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogError(msg string, subSystem consensustypes.SubSystem, keyvals ...interface{}) {
	k.Logger().Error(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogWarn(msg string, subSystem consensustypes.SubSystem, keyvals ...interface{}) {
	k.Logger().Warn(msg, append(keyvals, "subsystem", subSystem.String())...)
}

// GetParams returns the stored registry parameters, falling back to the
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

// SetParams validates and stores the registry parameters.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

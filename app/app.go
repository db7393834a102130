package app

import (
	"context"
	"os"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/0xDevNinja/neuro-mesh/appconfig"
	"github.com/0xDevNinja/neuro-mesh/kvstore"
	consensuskeeper "github.com/0xDevNinja/neuro-mesh/x/consensus/keeper"
	consensustypes "github.com/0xDevNinja/neuro-mesh/x/consensus/types"
	registrykeeper "github.com/0xDevNinja/neuro-mesh/x/registry/keeper"
	registrytypes "github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

// App wires the store, the registry and the consensus core into a
// runnable node.
type App struct {
	Config appconfig.Config
	Logger log.Logger

	DB        *kvstore.Database
	Registry  registrykeeper.Keeper
	Consensus consensuskeeper.Keeper
}

// New opens the database and constructs the keepers. The caller owns the
// returned App and must Close it.
func New(cfg appconfig.Config) (*App, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, errors.Errorf("invalid config: %s", problems[0])
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	var db *kvstore.Database
	if cfg.DB.InMemory {
		db, err = kvstore.OpenInMemory()
	} else {
		var path string
		path, err = cfg.DBPath()
		if err != nil {
			return nil, err
		}
		db, err = kvstore.Open(path)
	}
	if err != nil {
		return nil, err
	}

	registry := registrykeeper.NewKeeper(db.Service(registrytypes.ModuleName), logger)
	consensus := consensuskeeper.NewKeeper(
		db.Service(consensustypes.ModuleName),
		logger,
		registry,
		registry,
		registry,
		cfg.Epoch.Workers,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Registry:  registry,
		Consensus: consensus,
	}, nil
}

// NewLogger builds the node logger from the log section of the config.
func NewLogger(cfg appconfig.LogConfig) (log.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse log level "+cfg.Level)
	}
	opts := []log.Option{log.LevelOption(level)}
	if cfg.Format == "json" {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(os.Stderr, opts...), nil
}

// Bootstrap seeds the registry from the bootstrap section of the config.
// Existing entries are left untouched, so repeated starts are safe.
func (a *App) Bootstrap(ctx context.Context) error {
	epoch, err := a.Consensus.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}

	for _, s := range a.Config.Bootstrap.Subnets {
		_, found, err := a.Registry.GetSubnet(ctx, s.Id)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		info, err := subnetInfoFromBootstrap(s)
		if err != nil {
			return err
		}
		if err := a.Registry.CreateSubnet(ctx, info); err != nil {
			return errors.Wrap(err, "failed to bootstrap subnet "+s.Name)
		}
	}

	for _, m := range a.Config.Bootstrap.Miners {
		if err := a.bootstrapParticipant(ctx, m, consensustypes.RoleMiner, epoch); err != nil {
			return err
		}
	}
	for _, v := range a.Config.Bootstrap.Validators {
		if err := a.bootstrapParticipant(ctx, v, consensustypes.RoleValidator, epoch); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) bootstrapParticipant(ctx context.Context, p appconfig.ParticipantBootstrap, role consensustypes.ParticipantRole, epoch uint64) error {
	_, found, err := a.Registry.GetParticipant(ctx, p.SubnetId, p.Uid, role)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	stake, ok := math.NewIntFromString(p.Stake)
	if !ok {
		return errors.Errorf("invalid stake %q for uid %d", p.Stake, p.Uid)
	}
	if role == consensustypes.RoleValidator {
		err = a.Registry.RegisterValidator(ctx, p.SubnetId, p.Uid, p.Account, stake, epoch)
	} else {
		err = a.Registry.RegisterMiner(ctx, p.SubnetId, p.Uid, p.Account, stake, epoch)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to bootstrap %s uid %d on subnet %d", role.String(), p.Uid, p.SubnetId)
	}
	return nil
}

func subnetInfoFromBootstrap(s appconfig.SubnetBootstrap) (registrytypes.SubnetInfo, error) {
	taskType, ok := registrytypes.ParseTaskType(s.TaskType)
	if !ok {
		return registrytypes.SubnetInfo{}, errors.Errorf("unknown task_type %q", s.TaskType)
	}
	emissionShare, err := math.LegacyNewDecFromStr(s.EmissionShare)
	if err != nil {
		return registrytypes.SubnetInfo{}, errors.Wrap(err, "invalid emission_share")
	}
	info := registrytypes.SubnetInfo{
		Id:            s.Id,
		Name:          s.Name,
		TaskType:      taskType,
		EmissionShare: emissionShare,
		MaxMiners:     s.MaxMiners,
		MaxValidators: s.MaxValidators,
		Owner:         s.Owner,
		Status:        registrytypes.SubnetActive,
	}
	if s.ValidatorShare != "" {
		share, err := math.LegacyNewDecFromStr(s.ValidatorShare)
		if err != nil {
			return registrytypes.SubnetInfo{}, errors.Wrap(err, "invalid validator_share")
		}
		info.ValidatorShare = &share
	}
	info.MinStakeMiner, err = parseStake(s.MinStakeMiner)
	if err != nil {
		return registrytypes.SubnetInfo{}, err
	}
	info.MinStakeValidator, err = parseStake(s.MinStakeValidator)
	if err != nil {
		return registrytypes.SubnetInfo{}, err
	}
	return info, nil
}

func parseStake(s string) (math.Int, error) {
	value, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.Errorf("invalid stake amount %q", s)
	}
	return value, nil
}

// RunEpochLoop drives epoch boundaries on the configured interval until
// the context is canceled. Boundary failures are logged and the loop
// keeps running.
func (a *App) RunEpochLoop(ctx context.Context) error {
	interval := time.Duration(a.Config.Epoch.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.Logger.Info("epoch loop started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("epoch loop stopped")
			return nil
		case <-ticker.C:
			epoch, err := a.Consensus.GetCurrentEpoch(ctx)
			if err != nil {
				a.Logger.Error("epoch loop: reading current epoch failed", "error", err.Error())
				continue
			}
			if err := a.Consensus.OnEpochBoundary(ctx, epoch); err != nil {
				a.Logger.Error("epoch loop: boundary failed", "epoch", epoch, "error", err.Error())
			}
		}
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	registrytypes "github.com/0xDevNinja/neuro-mesh/x/registry/types"
)

type Config struct {
	Home      string          `koanf:"home" json:"home"`
	DB        DBConfig        `koanf:"db" json:"db"`
	Log       LogConfig       `koanf:"log" json:"log"`
	Epoch     EpochConfig     `koanf:"epoch" json:"epoch"`
	Bootstrap BootstrapConfig `koanf:"bootstrap" json:"bootstrap"`
}

type DBConfig struct {
	Path     string `koanf:"path" json:"path"`
	InMemory bool   `koanf:"in_memory" json:"in_memory"`
}

type LogConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}

type EpochConfig struct {
	IntervalSeconds int `koanf:"interval_seconds" json:"interval_seconds"`
	Workers         int `koanf:"workers" json:"workers"`
}

// BootstrapConfig seeds the registry on first start so a fresh node can
// accept submissions without an external provisioning step. Seeding is
// idempotent: entries that already exist are left alone.
type BootstrapConfig struct {
	Subnets    []SubnetBootstrap      `koanf:"subnets" json:"subnets"`
	Miners     []ParticipantBootstrap `koanf:"miners" json:"miners"`
	Validators []ParticipantBootstrap `koanf:"validators" json:"validators"`
}

type SubnetBootstrap struct {
	Id                uint32 `koanf:"id" json:"id"`
	Name              string `koanf:"name" json:"name"`
	TaskType          string `koanf:"task_type" json:"task_type"`
	EmissionShare     string `koanf:"emission_share" json:"emission_share"`
	ValidatorShare    string `koanf:"validator_share" json:"validator_share"`
	MinStakeMiner     string `koanf:"min_stake_miner" json:"min_stake_miner"`
	MinStakeValidator string `koanf:"min_stake_validator" json:"min_stake_validator"`
	MaxMiners         uint16 `koanf:"max_miners" json:"max_miners"`
	MaxValidators     uint16 `koanf:"max_validators" json:"max_validators"`
	Owner             string `koanf:"owner" json:"owner"`
}

type ParticipantBootstrap struct {
	SubnetId uint32 `koanf:"subnet_id" json:"subnet_id"`
	Uid      uint32 `koanf:"uid" json:"uid"`
	Account  string `koanf:"account" json:"account"`
	Stake    string `koanf:"stake" json:"stake"`
}

func DefaultConfig() Config {
	return Config{
		DB: DBConfig{
			Path: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "plain",
		},
		Epoch: EpochConfig{
			IntervalSeconds: 600,
			Workers:         4,
		},
	}
}

// ResolvedHome returns the node home directory, defaulting to
// ~/.neuromeshd when unset.
func (c Config) ResolvedHome() (string, error) {
	if c.Home != "" {
		return c.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".neuromeshd"), nil
}

// DBPath returns the database directory, resolving a relative db.path
// against the node home.
func (c Config) DBPath() (string, error) {
	if filepath.IsAbs(c.DB.Path) {
		return c.DB.Path, nil
	}
	home, err := c.ResolvedHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, c.DB.Path), nil
}

// Validate checks the configuration without touching the filesystem.
// Returns a description of every problem found, or nil if valid.
func (c Config) Validate() []string {
	var errors []string

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "plain" {
		errors = append(errors, fmt.Sprintf("log.format must be json or plain, got %q", c.Log.Format))
	}
	if c.Epoch.IntervalSeconds <= 0 {
		errors = append(errors, fmt.Sprintf("epoch.interval_seconds must be greater than 0, got %d", c.Epoch.IntervalSeconds))
	}
	if c.Epoch.Workers <= 0 {
		errors = append(errors, fmt.Sprintf("epoch.workers must be greater than 0, got %d", c.Epoch.Workers))
	}
	if !c.DB.InMemory && strings.TrimSpace(c.DB.Path) == "" {
		errors = append(errors, "db.path is required unless db.in_memory is set")
	}

	errors = append(errors, c.Bootstrap.validate()...)
	return errors
}

func (b BootstrapConfig) validate() []string {
	var errors []string

	subnetIds := make(map[uint32]bool, len(b.Subnets))
	for i, subnet := range b.Subnets {
		where := fmt.Sprintf("bootstrap.subnets[%d]", i)
		if subnetIds[subnet.Id] {
			errors = append(errors, fmt.Sprintf("%s: duplicate subnet id %d", where, subnet.Id))
		}
		subnetIds[subnet.Id] = true
		if strings.TrimSpace(subnet.Name) == "" {
			errors = append(errors, fmt.Sprintf("%s: name is required", where))
		}
		if _, ok := registrytypes.ParseTaskType(subnet.TaskType); !ok {
			errors = append(errors, fmt.Sprintf("%s: unknown task_type %q", where, subnet.TaskType))
		}
		if !validDecString(subnet.EmissionShare) {
			errors = append(errors, fmt.Sprintf("%s: emission_share %q is not a decimal in [0,1]", where, subnet.EmissionShare))
		}
		if subnet.ValidatorShare != "" && !validDecString(subnet.ValidatorShare) {
			errors = append(errors, fmt.Sprintf("%s: validator_share %q is not a decimal in [0,1]", where, subnet.ValidatorShare))
		}
		if !validIntString(subnet.MinStakeMiner) {
			errors = append(errors, fmt.Sprintf("%s: min_stake_miner %q is not a non-negative integer", where, subnet.MinStakeMiner))
		}
		if !validIntString(subnet.MinStakeValidator) {
			errors = append(errors, fmt.Sprintf("%s: min_stake_validator %q is not a non-negative integer", where, subnet.MinStakeValidator))
		}
		if subnet.MaxMiners == 0 {
			errors = append(errors, fmt.Sprintf("%s: max_miners must be greater than 0", where))
		}
		if subnet.MaxValidators == 0 {
			errors = append(errors, fmt.Sprintf("%s: max_validators must be greater than 0", where))
		}
	}

	errors = append(errors, validateParticipants("bootstrap.miners", b.Miners, subnetIds)...)
	errors = append(errors, validateParticipants("bootstrap.validators", b.Validators, subnetIds)...)
	return errors
}

func validateParticipants(where string, participants []ParticipantBootstrap, subnetIds map[uint32]bool) []string {
	var errors []string
	seen := make(map[uint64]bool, len(participants))
	for i, p := range participants {
		at := fmt.Sprintf("%s[%d]", where, i)
		if !subnetIds[p.SubnetId] {
			errors = append(errors, fmt.Sprintf("%s: subnet %d is not in bootstrap.subnets", at, p.SubnetId))
		}
		key := uint64(p.SubnetId)<<32 | uint64(p.Uid)
		if seen[key] {
			errors = append(errors, fmt.Sprintf("%s: duplicate uid %d on subnet %d", at, p.Uid, p.SubnetId))
		}
		seen[key] = true
		if strings.TrimSpace(p.Account) == "" {
			errors = append(errors, fmt.Sprintf("%s: account is required", at))
		}
		if !validIntString(p.Stake) {
			errors = append(errors, fmt.Sprintf("%s: stake %q is not a non-negative integer", at, p.Stake))
		}
	}
	return errors
}

func validDecString(s string) bool {
	dec, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return false
	}
	return !dec.IsNegative() && dec.LTE(math.LegacyOneDec())
}

func validIntString(s string) bool {
	value, ok := math.NewIntFromString(s)
	return ok && !value.IsNegative()
}

package appconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const EnvPrefix = "NEUROMESH_"

// Load builds the effective configuration by layering, lowest precedence
// first: compiled defaults, the YAML file at path (skipped when absent),
// then NEUROMESH_* environment variables. Env keys map nested sections
// with a double underscore: NEUROMESH_EPOCH__INTERVAL_SECONDS sets
// epoch.interval_seconds.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "failed to load default config")
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, errors.Wrap(err, "failed to load config file "+path)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "failed to stat config file "+path)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envToKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return cfg, nil
}

func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories as needed. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.New("config file " + path + " already exists")
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return errors.Wrap(err, "failed to load default config")
	}
	out, err := k.Marshal(yaml.Parser())
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

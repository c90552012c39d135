package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileName is the conventional settings file name. Nothing in this package
// searches for it: Resolve reads only the path it is given, or DefaultPath.
const fileName = ".tabulua.yml"

// DefaultPath returns the fallback settings path under the user's XDG
// config home, used by Resolve when it is given an empty path.
func DefaultPath() string {
	return xdg.ConfigHome + "/tabulua/config.yml"
}

// Load reads and parses a settings file. A missing file is not an error;
// it returns a zero Config so callers can Apply it unconditionally.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	return c, nil
}

// Save writes a settings file, creating its parent directory if needed.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating config dir %s", dir)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing config %s", path)
	}
	return nil
}

// Resolve loads the settings file at path (falling back to DefaultPath
// when path is empty), layers it over DefaultConfig, then layers flags on
// top: a three-stage defaults -> settings -> flags chain.
func Resolve(path string, flags Config) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	c := DefaultConfig()

	fileCfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	c.Apply(fileCfg)
	c.Apply(flags)
	return c, nil
}

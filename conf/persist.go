package conf

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/voltmesh/gridx/errors"
)

// persistConfig mirrors Config with TOML tags for writing. Viper reads
// with mapstructure tags; writing goes through go-toml directly so the
// emitted file round-trips.
type persistConfig struct {
	Convert struct {
		Workers     int    `toml:"workers"`
		JournalPath string `toml:"journal_path,omitempty"`
		Strict      bool   `toml:"strict"`
	} `toml:"convert"`
	Plugins struct {
		Enabled       []string `toml:"enabled,omitempty"`
		AllowOverride bool     `toml:"allow_override"`
	} `toml:"plugins"`
	Fetch struct {
		TimeoutSeconds int `toml:"timeout_seconds"`
	} `toml:"fetch"`
	Log struct {
		JSON bool `toml:"json"`
	} `toml:"log"`
}

// Write persists a config as TOML at path, creating or replacing the file.
func Write(cfg *Config, path string) error {
	var pc persistConfig
	pc.Convert.Workers = cfg.Convert.Workers
	pc.Convert.JournalPath = cfg.Convert.JournalPath
	pc.Convert.Strict = cfg.Convert.Strict
	pc.Plugins.Enabled = cfg.Plugins.Enabled
	pc.Plugins.AllowOverride = cfg.Plugins.AllowOverride
	pc.Fetch.TimeoutSeconds = cfg.Fetch.TimeoutSeconds
	pc.Log.JSON = cfg.Log.JSON

	raw, err := toml.Marshal(pc)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

// WriteDefault writes a config file populated with defaults at path. It
// refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path)
	}
	cfg := &Config{}
	cfg.Convert.Workers = 4
	cfg.Fetch.TimeoutSeconds = 300
	return Write(cfg, path)
}

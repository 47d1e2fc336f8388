// Package conf loads the gridx host configuration.
//
// Configuration merges, in precedence order: built-in defaults, a TOML
// config file (gridx.toml found by walking up from the working directory,
// or an explicit path), and GRIDX_-prefixed environment variables.
package conf

// Config represents the gridx host configuration
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Plugins PluginsConfig `mapstructure:"plugins"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Log     LogConfig     `mapstructure:"log"`
}

// ConvertConfig configures dataset conversion runs
type ConvertConfig struct {
	// Workers is the number of datasets converted concurrently in a batch
	Workers int `mapstructure:"workers"`

	// JournalPath enables the upgrade journal when non-empty
	JournalPath string `mapstructure:"journal_path"`

	// Strict makes parsers fail on schema version mismatches instead of
	// attempting a best-effort parse
	Strict bool `mapstructure:"strict"`
}

// PluginsConfig configures the format plugin registry
type PluginsConfig struct {
	// Enabled is a whitelist of enabled formats; empty enables all built-ins
	Enabled []string `mapstructure:"enabled"`

	// AllowOverride permits host wiring to replace built-in formats
	AllowOverride bool `mapstructure:"allow_override"`
}

// FetchConfig configures remote dataset retrieval
type FetchConfig struct {
	// TimeoutSeconds bounds a single fetch (default: 300)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LogConfig configures logging output
type LogConfig struct {
	// JSON switches to machine-readable structured output
	JSON bool `mapstructure:"json"`
}

// FormatEnabled reports whether a format passes the plugin whitelist.
func (c *Config) FormatEnabled(format string) bool {
	if len(c.Plugins.Enabled) == 0 {
		return true
	}
	for _, f := range c.Plugins.Enabled {
		if f == format {
			return true
		}
	}
	return false
}

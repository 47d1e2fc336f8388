package conf

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Conversion defaults
	v.SetDefault("convert.workers", 4)
	v.SetDefault("convert.journal_path", "")
	v.SetDefault("convert.strict", false)

	// Plugin defaults: empty whitelist enables every built-in format
	v.SetDefault("plugins.enabled", []string{})
	v.SetDefault("plugins.allow_override", false)

	// Fetch defaults
	v.SetDefault("fetch.timeout_seconds", 300)

	// Logging defaults
	v.SetDefault("log.json", false)
}

package conf

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/voltmesh/gridx/errors"
)

// ConfigFileName is the well-known config file name searched for by Load.
const ConfigFileName = "gridx.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper
)

// Load reads the gridx configuration, caching it for subsequent calls.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// LoadFromFile loads configuration from a specific file path, bypassing
// the cache and the search path.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config from %s", configPath)
	}
	return &config, nil
}

// GetViper returns the shared Viper instance for advanced access.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with environment binding, defaults, and the
// config file search. Callers hold mu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("GRIDX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path := findProjectConfig(); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		// Missing or unreadable project config falls back to defaults
		_ = v.ReadInConfig()
	}

	viperInstance = v
	return v
}

// findProjectConfig searches for gridx.toml by walking up the directory
// tree from the working directory. Returns "" if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

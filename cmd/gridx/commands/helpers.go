package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/conf"
	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/formats/reeds"
	"github.com/voltmesh/gridx/formats/sienna"
	"github.com/voltmesh/gridx/plugin"
)

// formatConfig builds the typed per-format config from command flags.
// Formats without dedicated flags run on their defaults.
func formatConfig(format string) (plugin.FormatConfig, error) {
	switch format {
	case reeds.FormatName:
		return &reeds.Config{
			WeatherYear: flagWeatherYear,
			SolveYear:   flagSolveYear,
		}, nil
	case sienna.FormatName:
		if flagWeatherYear != 0 || flagSolveYear != 0 {
			return nil, errors.Newf("--weather-year and --solve-year do not apply to %s datasets", format)
		}
		return &sienna.Config{SystemName: flagSystemName}, nil
	default:
		// Leave resolution (and the unknown-format error) to the registry
		return nil, nil
	}
}

// fetchTimeout returns the remote transfer limit from the config.
func fetchTimeout() time.Duration {
	cfg, err := conf.Load()
	if err != nil {
		return 0
	}
	return time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
}

// Flags shared by the convert, upgrade, and parse commands.
var (
	flagFormat      string
	flagStrict      bool
	flagTarget      string
	flagWeatherYear int
	flagSolveYear   int
	flagSystemName  string
)

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Dataset format (required; see 'gridx formats')")
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Fail on schema version mismatch instead of best-effort parsing")
	cmd.Flags().StringVar(&flagTarget, "target", "", "Upgrade to this schema version instead of the latest")
	cmd.Flags().IntVar(&flagWeatherYear, "weather-year", 0, "ReEDS weather profile year")
	cmd.Flags().IntVar(&flagSolveYear, "solve-year", 0, "ReEDS solve year to extract")
	cmd.Flags().StringVar(&flagSystemName, "system-name", "", "Sienna system name override")
	_ = cmd.MarkFlagRequired("format")
}

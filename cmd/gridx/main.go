package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/cmd/gridx/commands"
	"github.com/voltmesh/gridx/conf"
	"github.com/voltmesh/gridx/formats"
	"github.com/voltmesh/gridx/logger"
	"github.com/voltmesh/gridx/plugin"
	"github.com/voltmesh/gridx/version"
)

var rootCmd = &cobra.Command{
	Use:   "gridx",
	Short: "gridx - Power system dataset conversion",
	Long: `gridx - Convert power system model datasets into one canonical system
representation.

Each supported format ships as a plugin providing an upgrader (brings a
dataset up to the schema version its parser expects) and a parser (builds
the canonical system document).

Available commands:
  convert  - Upgrade a dataset and parse it into the system document
  upgrade  - Run only the upgrade ladder against a dataset
  parse    - Parse an already-upgraded dataset
  formats  - List registered dataset formats
  fetch    - Retrieve a remote dataset to a local folder
  checksum - Refresh release artifact checksums
  version  - Show version information

Examples:
  gridx convert --format reeds ./runs/case42
  gridx upgrade --format reeds ./runs/case42
  gridx formats
  gridx fetch https://example.com/case.tar.gz ./case`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	initializeFormatRegistry()

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ConvertCmd)
	rootCmd.AddCommand(commands.UpgradeCmd)
	rootCmd.AddCommand(commands.ParseCmd)
	rootCmd.AddCommand(commands.FormatsCmd)
	rootCmd.AddCommand(commands.FetchCmd)
	rootCmd.AddCommand(commands.ChecksumCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

// initializeFormatRegistry builds the process-wide format registry from
// the built-in table, honoring the plugin section of the config, and
// freezes it before any command can run.
func initializeFormatRegistry() {
	registry := plugin.NewRegistry(version.Host())

	cfg, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load configuration, enabling all formats: %v\n", err)
		cfg = nil
	}
	if err := formats.RegisterEnabled(registry, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register built-in formats: %v\n", err)
		os.Exit(1)
	}

	registry.Freeze()
	plugin.SetDefaultRegistry(registry)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/fetch"
	"github.com/voltmesh/gridx/plugin"
)

// UpgradeCmd represents the upgrade command
var UpgradeCmd = &cobra.Command{
	Use:   "upgrade LOCATION",
	Short: "Run only the upgrade ladder against a dataset",
	Long: `Bring a dataset up to the schema version its format expects without
parsing it. Prints the upgrade report, e.g.:

  {"upgraded":"reeds","folder":"/data/case42"}

Re-running against an already-upgraded dataset is a no-op.

Examples:
  gridx upgrade --format reeds ./runs/case42
  gridx upgrade --format reeds --target 1.1.0 ./runs/case42`,
	Args: cobra.ExactArgs(1),
	RunE: runUpgrade,
}

func init() {
	addDatasetFlags(UpgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry := plugin.DefaultRegistry()

	src, err := fetch.Resolve(ctx, args[0], fetchTimeout())
	if err != nil {
		return err
	}
	defer src.Close()

	cfg, err := formatConfig(flagFormat)
	if err != nil {
		return err
	}
	opts := plugin.Options{TargetVersion: flagTarget, Strict: flagStrict}

	ds, err := registry.NewStore(flagFormat, cfg, src.LocalPath, opts)
	if err != nil {
		return err
	}
	upgrader, err := registry.NewUpgrader(flagFormat, cfg, ds, opts)
	if err != nil {
		return err
	}
	report, err := upgrader.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "upgrade dataset")
	}

	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}

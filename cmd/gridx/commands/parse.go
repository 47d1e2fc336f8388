package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/fetch"
	"github.com/voltmesh/gridx/plugin"
)

// ParseCmd represents the parse command
var ParseCmd = &cobra.Command{
	Use:   "parse LOCATION",
	Short: "Parse an already-upgraded dataset",
	Long: `Parse a dataset into the canonical system document without running
the upgrade ladder. With --strict, a dataset whose schema version does
not match what the format expects is rejected instead of parsed
best-effort.

Example:
  gridx parse --format sienna --strict ./exports/rts`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	addDatasetFlags(ParseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
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
	opts := plugin.Options{Strict: flagStrict}

	ds, err := registry.NewStore(flagFormat, cfg, src.LocalPath, opts)
	if err != nil {
		return err
	}
	parser, err := registry.NewParser(flagFormat, cfg, ds, opts)
	if err != nil {
		return err
	}
	doc, err := parser.BuildSystem(ctx)
	if err != nil {
		return errors.Wrap(err, "parse dataset")
	}
	rendered, err := doc.Render()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/fetch"
)

// FetchCmd represents the fetch command
var FetchCmd = &cobra.Command{
	Use:   "fetch SOURCE [DEST]",
	Short: "Retrieve a remote dataset to a local folder",
	Long: `Retrieve a dataset from a remote source into a local folder. Sources
may be https URLs, git repositories, s3/gcs buckets, or archives
(auto-extracted). DEST defaults to the source's base name in the current
directory.

Examples:
  gridx fetch https://example.com/case42.tar.gz
  gridx fetch github.com/nrel/case42 ./datasets/case42`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	source := args[0]
	dest := ""
	if len(args) == 2 {
		dest = args[1]
	}
	if dest == "" {
		base := filepath.Base(source)
		for _, suffix := range []string{".tar.xz", ".tar.gz", ".zip"} {
			if trimmed, ok := strings.CutSuffix(base, suffix); ok {
				base = trimmed
				break
			}
		}
		dest = base
	}

	if err := fetch.FetchTo(cmd.Context(), source, dest, fetchTimeout()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dest)
	return nil
}

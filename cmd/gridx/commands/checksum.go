package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/release"
)

// ChecksumCmd represents the checksum command
var ChecksumCmd = &cobra.Command{
	Use:   "checksum DIST_DIR",
	Short: "Refresh release artifact checksums",
	Long: `Recompute the SHA-256 digest of every distribution artifact under
DIST_DIR (gridx-*.tar.xz, gridx-*.zip), write a ".sha256" sidecar next
to each, and rewrite the digests recorded in the release manifest.

Re-running against unchanged artifacts is a no-op, so the command is
safe in release automation.

Example:
  gridx checksum target/distrib --manifest target/distrib/manifest.json`,
	Args: cobra.ExactArgs(1),
	RunE: runChecksum,
}

var checksumManifest string

func init() {
	ChecksumCmd.Flags().StringVar(&checksumManifest, "manifest", "", "Release manifest to rewrite (skipped when absent)")
}

func runChecksum(cmd *cobra.Command, args []string) error {
	digests, err := release.UpdateChecksums(release.DefaultPatterns(args[0]))
	if err != nil {
		return err
	}
	if checksumManifest != "" {
		if err := release.UpdateManifest(checksumManifest, digests); err != nil {
			return err
		}
	}

	if len(digests) == 0 {
		pterm.Warning.Printf("No distribution artifacts found under %s\n", args[0])
		return nil
	}
	pterm.Success.Printf("Updated checksums for %d artifacts\n", len(digests))
	return nil
}

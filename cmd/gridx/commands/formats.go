package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/plugin"
)

// FormatsCmd represents the formats command
var FormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List registered dataset formats",
	Long: `List every format registered with this binary along with its plugin
version and capabilities.`,
	RunE: runFormats,
}

func runFormats(cmd *cobra.Command, args []string) error {
	registry := plugin.DefaultRegistry()

	names := registry.Formats()
	if len(names) == 0 {
		pterm.Warning.Println("No formats registered - check the plugins section of gridx.toml")
		return nil
	}

	table := pterm.TableData{{"FORMAT", "VERSION", "CAPABILITIES", "DESCRIPTION"}}
	for _, name := range names {
		meta, err := registry.Lookup(name, plugin.CapabilityParser)
		if err != nil {
			meta, err = registry.Lookup(name, plugin.CapabilityUpgrader)
		}
		if err != nil {
			continue
		}

		caps := make([]string, 0, len(plugin.Capabilities))
		for _, c := range registry.FormatCapabilities(name) {
			caps = append(caps, string(c))
		}
		table = append(table, []string{
			name,
			meta.Version,
			strings.Join(caps, ", "),
			meta.Description,
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		// Fall back to plain output when the terminal rejects rendering
		for _, row := range table[1:] {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(row, "\t"))
		}
	}
	return nil
}

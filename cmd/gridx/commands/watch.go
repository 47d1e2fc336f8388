package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/logger"
	"github.com/voltmesh/gridx/plugin"
)

const watchDebounce = 500 * time.Millisecond

// underFolder reports whether name is folder itself or a path inside it.
// A bare prefix match is not enough: sibling folders sharing a prefix
// (case1, case10) must not be confused.
func underFolder(name, folder string) bool {
	return name == folder || strings.HasPrefix(name, folder+string(filepath.Separator))
}

// watchConvert re-runs the conversion whenever a watched dataset folder
// changes, debouncing bursts of writes into one run per folder. Runs
// until the context is cancelled; conversion failures are logged and
// watching continues.
func watchConvert(ctx context.Context, cmd *cobra.Command, format string, locations []string, opts plugin.Options) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create dataset watcher")
	}
	defer fw.Close()

	for _, location := range locations {
		if err := fw.Add(location); err != nil {
			return errors.Wrapf(err, "watch dataset folder %s", location)
		}
	}
	logger.Infow("Watching datasets for changes",
		"format", format,
		"folders", len(locations),
	)

	pending := make(map[string]struct{})
	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			for _, location := range locations {
				if underFolder(event.Name, location) {
					pending[location] = struct{}{}
				}
			}
			debounce.Reset(watchDebounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("Dataset watcher error", "error", err)

		case <-debounce.C:
			for location := range pending {
				upgradeDoc, systemDoc, err := convertOne(ctx, format, location, opts)
				if err != nil {
					logger.Errorw("Conversion failed",
						"format", format,
						"location", location,
						"error", err,
					)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), upgradeDoc)
				fmt.Fprintln(cmd.OutOrStdout(), systemDoc)
			}
			clear(pending)
		}
	}
}

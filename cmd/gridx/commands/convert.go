package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voltmesh/gridx/conf"
	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/fetch"
	"github.com/voltmesh/gridx/journal"
	"github.com/voltmesh/gridx/logger"
	"github.com/voltmesh/gridx/plugin"
)

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert LOCATION...",
	Short: "Upgrade a dataset and parse it into the system document",
	Long: `Upgrade each dataset to the schema version its format expects, then
parse it into the canonical system document.

Two lines are printed per dataset: the upgrade report, then the system
document. Locations may be local folders or any remote source the fetch
command accepts. Multiple datasets convert concurrently; one failing
dataset does not stop the others. With --watch, conversion re-runs
whenever a dataset folder changes, until interrupted.

Examples:
  gridx convert --format reeds ./runs/case42
  gridx convert --format reeds --strict --journal ./gridx.db ./runs/*
  gridx convert --format sienna --system-name rts ./exports/rts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

var (
	convertWorkers int
	convertJournal string
	convertWatch   bool
)

func init() {
	addDatasetFlags(ConvertCmd)
	ConvertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "Concurrent dataset conversions (0 = config default)")
	ConvertCmd.Flags().StringVar(&convertJournal, "journal", "", "Journal upgrade steps to this SQLite database")
	ConvertCmd.Flags().BoolVar(&convertWatch, "watch", false, "Re-run conversion when a dataset folder changes")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := conf.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	workers := convertWorkers
	if workers <= 0 {
		workers = cfg.Convert.Workers
	}
	if workers <= 0 {
		workers = 1
	}
	strict := flagStrict || cfg.Convert.Strict

	journalPath := convertJournal
	if journalPath == "" {
		journalPath = cfg.Convert.JournalPath
	}
	var recorder *journal.Journal
	if journalPath != "" {
		recorder, err = journal.Open(journalPath)
		if err != nil {
			return errors.Wrap(err, "open upgrade journal")
		}
		defer recorder.Close()
	}

	opts := plugin.Options{
		TargetVersion: flagTarget,
		Strict:        strict,
	}
	if recorder != nil {
		opts.Extra = map[string]any{"recorder": recorder}
	}

	var (
		outMu  sync.Mutex
		failed int
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for _, location := range args {
		g.Go(func() error {
			upgradeDoc, systemDoc, err := convertOne(ctx, flagFormat, location, opts)

			outMu.Lock()
			defer outMu.Unlock()
			if err != nil {
				failed++
				logger.Errorw("Conversion failed",
					"format", flagFormat,
					"location", location,
					"error", err,
				)
				// Isolate the failure: other datasets keep converting
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), upgradeDoc)
			fmt.Fprintln(cmd.OutOrStdout(), systemDoc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if convertWatch {
		return watchConvert(cmd.Context(), cmd, flagFormat, args, opts)
	}
	if failed > 0 {
		return errors.Newf("%d of %d datasets failed to convert", failed, len(args))
	}
	return nil
}

// convertOne runs the full pipeline for one dataset: resolve the
// location, upgrade, parse. Returns the two serialized documents.
func convertOne(ctx context.Context, format, location string, opts plugin.Options) (string, string, error) {
	registry := plugin.DefaultRegistry()

	src, err := fetch.Resolve(ctx, location, fetchTimeout())
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	cfg, err := formatConfig(format)
	if err != nil {
		return "", "", err
	}
	ds, err := registry.NewStore(format, cfg, src.LocalPath, opts)
	if err != nil {
		return "", "", err
	}

	upgrader, err := registry.NewUpgrader(format, cfg, ds, opts)
	if err != nil {
		return "", "", err
	}
	upgradeDoc, err := upgrader.Run(ctx)
	if err != nil {
		return "", "", errors.Wrap(err, "upgrade dataset")
	}

	parser, err := registry.NewParser(format, cfg, ds, opts)
	if err != nil {
		return "", "", err
	}
	doc, err := parser.BuildSystem(ctx)
	if err != nil {
		return "", "", errors.Wrap(err, "parse dataset")
	}
	systemDoc, err := doc.Render()
	if err != nil {
		return "", "", err
	}
	return upgradeDoc, systemDoc, nil
}

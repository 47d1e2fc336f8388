package reeds

import (
	"context"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/store"
	"github.com/voltmesh/gridx/upgrade"
)

// Upgrader runs the ReEDS ladder against one dataset folder and reports
// the outcome as the serialized upgrade document.
type Upgrader struct {
	ds       store.DataStore
	pipeline *upgrade.Pipeline
}

// NewUpgrader constructs an upgrader over ds. A nil steps slice means the
// full built-in ladder; passing steps explicitly substitutes a caller
// ladder (used by tests and partial migrations).
func NewUpgrader(ds store.DataStore, steps []upgrade.Step, opts ...upgrade.PipelineOption) (*Upgrader, error) {
	if ds == nil {
		return nil, errors.New("reeds upgrader requires a data store")
	}
	if steps == nil {
		steps = Ladder()
	}
	p, err := upgrade.NewPipeline(ds, steps, opts...)
	if err != nil {
		return nil, err
	}
	return &Upgrader{ds: ds, pipeline: p}, nil
}

// Run executes the ladder and returns the serialized report document,
// e.g. {"upgraded":"reeds","folder":"/data/case"}. ReEDS datasets are
// folder-oriented, so the location field is "folder". A run that applied
// no steps reports just the format and folder.
func (u *Upgrader) Run(ctx context.Context) (string, error) {
	outcome, err := u.pipeline.Run(ctx)
	if err != nil {
		return "", err
	}
	report := upgrade.Report{
		Upgraded: FormatName,
		Folder:   u.ds.Path(),
	}
	if len(outcome.Applied) > 0 {
		report.FromVersion = outcome.FromVersion
		report.ToVersion = outcome.FinalVersion
		report.Steps = outcome.Applied
	}
	return report.Render()
}

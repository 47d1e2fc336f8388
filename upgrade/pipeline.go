package upgrade

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/logger"
	"github.com/voltmesh/gridx/store"
)

// Recorder receives a journal entry for every executed step. The pipeline
// treats it as observability only: recorder failures are logged, never
// fatal, and the store descriptor remains the resumption authority.
type Recorder interface {
	RecordStep(datasetPath, runID, step, fromVersion, toVersion string, stepErr error) error
}

// Outcome is the success value of a pipeline run.
type Outcome struct {
	// RunID identifies this run in logs and the journal
	RunID string

	// FromVersion is the schema version the dataset started at
	FromVersion string

	// FinalVersion is the schema version the dataset ended at
	FinalVersion string

	// Applied lists the names of the steps that executed, in order
	Applied []string

	// Payload is the final in-memory working set, ready for the parser
	Payload Payload
}

// Pipeline executes a ladder of upgrade steps against one dataset.
//
// The construction-time step order is the execution order; the pipeline
// never reorders by version inference. It rejects only detectable
// inconsistency: duplicate step identity, unparseable versions, a step
// that does not advance the version, or a break in ladder contiguity.
type Pipeline struct {
	ds            store.DataStore
	steps         []Step
	target        string
	targetVersion *semver.Version
	recorder      Recorder
	log           *zap.SugaredLogger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecorder journals every executed step.
func WithRecorder(rec Recorder) PipelineOption {
	return func(p *Pipeline) { p.recorder = rec }
}

// WithLogger replaces the default logger.
func WithLogger(log *zap.SugaredLogger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// WithTarget stops the ladder early at the given version instead of the
// final rung. The version must match a rung's to-version; NewPipeline
// rejects a target the ladder cannot reach exactly.
func WithTarget(version string) PipelineOption {
	return func(p *Pipeline) { p.target = version }
}

// NewPipeline validates the ladder and builds a pipeline over the given
// store. An empty ladder is legal: the run is a validated no-op.
func NewPipeline(ds store.DataStore, steps []Step, opts ...PipelineOption) (*Pipeline, error) {
	if ds == nil {
		return nil, errors.New("pipeline requires a data store")
	}
	if err := validateLadder(steps); err != nil {
		return nil, err
	}

	p := &Pipeline{
		ds:    ds,
		steps: steps,
		log:   logger.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.target != "" {
		tv, err := semver.NewVersion(p.target)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid target version %q", p.target)
		}
		// A target that matches no rung would otherwise let the full
		// ladder run and migrate the dataset past the pinned version
		matched := false
		for _, s := range steps {
			if semver.MustParse(s.To()).Equal(tv) {
				matched = true
				break
			}
		}
		if !matched {
			return nil, errors.Newf("target version %s matches no ladder rung", p.target)
		}
		p.targetVersion = tv
	}
	return p, nil
}

// validateLadder rejects duplicate step identity, non-advancing steps,
// and contiguity breaks. Ordering correctness beyond that is the ladder
// author's responsibility.
func validateLadder(steps []Step) error {
	seenNames := make(map[string]bool, len(steps))
	type edge struct{ from, to string }
	seenEdges := make(map[edge]bool, len(steps))

	for i, s := range steps {
		if s.Name() == "" {
			return errors.Newf("ladder step at position %d has no name", i+1)
		}
		if seenNames[s.Name()] {
			return errors.Newf("duplicate step %q in ladder", s.Name())
		}
		seenNames[s.Name()] = true

		from, err := semver.NewVersion(s.From())
		if err != nil {
			return errors.Wrapf(err, "step %q has invalid from-version %q", s.Name(), s.From())
		}
		to, err := semver.NewVersion(s.To())
		if err != nil {
			return errors.Wrapf(err, "step %q has invalid to-version %q", s.Name(), s.To())
		}
		if !to.GreaterThan(from) {
			return errors.Newf("step %q does not advance the schema version (%s -> %s)", s.Name(), s.From(), s.To())
		}

		e := edge{s.From(), s.To()}
		if seenEdges[e] {
			return errors.Newf("duplicate ladder rung %s -> %s (step %q)", s.From(), s.To(), s.Name())
		}
		seenEdges[e] = true

		if i > 0 && steps[i-1].To() != s.From() {
			return errors.Newf("ladder break between %q (to %s) and %q (from %s)",
				steps[i-1].Name(), steps[i-1].To(), s.Name(), s.From())
		}
	}
	return nil
}

// TargetVersion returns the version a full run migrates to: the explicit
// target if set, otherwise the final rung, otherwise the current version
// for an empty ladder.
func (p *Pipeline) TargetVersion() string {
	if p.target != "" {
		return p.target
	}
	if len(p.steps) == 0 {
		return ""
	}
	return p.steps[len(p.steps)-1].To()
}

// Run executes the ladder. Steps whose to-version is at or below the
// dataset's current schema version are skipped, which is what makes
// re-running a full ladder idempotent. On success the store descriptor's
// schema version is advanced to the final rung reached.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	if err := p.ds.Validate(); err != nil {
		return nil, err
	}
	desc, err := p.ds.Descriptor()
	if err != nil {
		return nil, err
	}
	current, err := semver.NewVersion(desc.SchemaVersion)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset descriptor has invalid schema version %q", desc.SchemaVersion)
	}

	outcome := &Outcome{
		RunID:        uuid.NewString(),
		FromVersion:  desc.SchemaVersion,
		FinalVersion: desc.SchemaVersion,
		Payload:      Payload{},
	}

	todo, err := p.align(current)
	if err != nil {
		return nil, err
	}

	sc := &StepContext{Store: p.ds, Log: p.log}
	for _, pos := range todo {
		step := p.steps[pos]
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "upgrade interrupted before step %q", step.Name())
		}

		p.log.Debugw("Applying upgrade step",
			"run_id", outcome.RunID,
			"step", step.Name(),
			"from", step.From(),
			"to", step.To(),
		)

		res := RunStep(ctx, step, outcome.Payload, sc)
		stepErr := error(nil)
		if res.IsErr() {
			stepErr = res.UnwrapErr()
		}
		p.record(outcome.RunID, step, stepErr)

		if stepErr != nil {
			// Fail-fast: remaining steps are never invoked, no rollback
			return nil, &StepError{
				Step:  step.Name(),
				Index: pos,
				From:  step.From(),
				To:    step.To(),
				Err:   stepErr,
			}
		}

		outcome.Payload = res.Unwrap()
		outcome.Applied = append(outcome.Applied, step.Name())
		outcome.FinalVersion = step.To()
	}

	if outcome.FinalVersion != desc.SchemaVersion {
		desc.SchemaVersion = outcome.FinalVersion
		if err := p.ds.WriteDescriptor(desc); err != nil {
			return nil, errors.Wrap(err, "record upgraded schema version")
		}
	}

	p.log.Infow("Upgrade complete",
		"run_id", outcome.RunID,
		"from", outcome.FromVersion,
		"to", outcome.FinalVersion,
		"steps_applied", len(outcome.Applied),
	)
	return outcome, nil
}

// align selects the ladder positions still to run for a dataset at
// version current. Rungs already reached are skipped wholesale; a version
// strictly between two rungs has no valid resumption point and is an
// error.
func (p *Pipeline) align(current *semver.Version) ([]int, error) {
	var todo []int
	for i, s := range p.steps {
		to := semver.MustParse(s.To())
		if !to.GreaterThan(current) {
			continue
		}
		from := semver.MustParse(s.From())
		if len(todo) == 0 && !from.Equal(current) {
			return nil, errors.Newf("dataset at version %s does not align with ladder rung %s -> %s (no upgrade path)",
				current, s.From(), s.To())
		}
		todo = append(todo, i)
		if p.targetVersion != nil && to.Equal(p.targetVersion) {
			break
		}
	}
	return todo, nil
}

func (p *Pipeline) record(runID string, step Step, stepErr error) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordStep(p.ds.Path(), runID, step.Name(), step.From(), step.To(), stepErr); err != nil {
		p.log.Warnw("Failed to journal upgrade step",
			"run_id", runID,
			"step", step.Name(),
			"error", err,
		)
	}
}

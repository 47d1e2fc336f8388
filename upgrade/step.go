// Package upgrade implements the ordered step pipeline that migrates a
// dataset from its current schema version to the version a parser expects.
//
// A ladder is a finite ordered sequence of steps covering a contiguous
// version range. Execution is strictly sequential and fail-fast: the first
// step that returns an error Result aborts the run, remaining steps are
// never invoked, and no rollback is attempted. Each step must be
// idempotent when invoked exactly once in its correct position; re-running
// the whole ladder is safe because already-reached rungs are skipped by
// the store descriptor's schema version.
package upgrade

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/result"
	"github.com/voltmesh/gridx/store"
)

// Payload is the in-memory working set threaded from one step to the
// next. On-disk changes go through the step context's store instead.
type Payload map[string]any

// StepContext carries the per-run resources a step may use. Steps borrow
// the store; they never own it.
type StepContext struct {
	Store store.DataStore
	Log   *zap.SugaredLogger
}

// Step is a single, idempotent transformation from one schema version to
// the next. Steps are stateless and process-lifetime: registered once,
// reused across datasets.
type Step interface {
	// Name identifies the step in errors, logs, and the journal
	Name() string

	// From is the schema version this step consumes (semver)
	From() string

	// To is the schema version this step produces (semver)
	To() string

	// Apply performs the migration. It receives the previous step's
	// payload and returns the next one; errors travel only through the
	// returned Result.
	Apply(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload]
}

// StepError identifies which step of a run failed and why.
type StepError struct {
	Step  string
	Index int // 0-based position in the ladder
	From  string
	To    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("upgrade step %q (%s -> %s, position %d) failed: %v", e.Step, e.From, e.To, e.Index+1, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// RunStep wraps a single step invocation. A panicking step is converted
// into an error Result so no panic crosses the plugin boundary; errors
// inside the Result are returned as-is.
func RunStep(ctx context.Context, step Step, payload Payload, sc *StepContext) (res result.Result[Payload]) {
	defer func() {
		if r := recover(); r != nil {
			if errors.HasAssertionFailure(asError(r)) {
				// Contract violations are bugs, not runtime conditions
				panic(r)
			}
			res = result.Err[Payload](errors.Newf("step %q panicked: %v", step.Name(), r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return result.Err[Payload](errors.Wrapf(err, "step %q not started", step.Name()))
	}
	return step.Apply(ctx, payload, sc)
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.Newf("%v", r)
}

// StepFunc adapts a plain function into a Step. Most format ladders use
// this instead of dedicated types.
type StepFunc struct {
	StepName    string
	FromVersion string
	ToVersion   string
	Fn          func(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload]
}

func (s StepFunc) Name() string { return s.StepName }
func (s StepFunc) From() string { return s.FromVersion }
func (s StepFunc) To() string   { return s.ToVersion }

func (s StepFunc) Apply(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
	return s.Fn(ctx, payload, sc)
}

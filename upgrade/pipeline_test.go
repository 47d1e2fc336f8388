package upgrade

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/result"
	"github.com/voltmesh/gridx/store"
)

// countingStep records how often it was applied.
type countingStep struct {
	name    string
	from    string
	to      string
	applies atomic.Int32
	fail    error
}

func (s *countingStep) Name() string { return s.name }
func (s *countingStep) From() string { return s.from }
func (s *countingStep) To() string   { return s.to }

func (s *countingStep) Apply(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
	s.applies.Add(1)
	if s.fail != nil {
		return result.Err[Payload](s.fail)
	}
	payload[s.name] = s.to
	return result.Ok(payload)
}

func testLadder() []*countingStep {
	return []*countingStep{
		{name: "init-descriptor", from: "0.0.0", to: "1.0.0"},
		{name: "rename-columns", from: "1.0.0", to: "1.1.0"},
		{name: "fold-timeslices", from: "1.1.0", to: "2.0.0"},
	}
}

func asSteps(cs []*countingStep) []Step {
	steps := make([]Step, len(cs))
	for i, s := range cs {
		steps[i] = s
	}
	return steps
}

func newTestStore(t *testing.T) *store.FolderStore {
	t.Helper()
	return store.NewFolderStore(t.TempDir(), nil)
}

// =============================================================================
// Ladder validation
// =============================================================================

func TestNewPipelineRequiresStore(t *testing.T) {
	_, err := NewPipeline(nil, nil)
	assert.Error(t, err)
}

func TestEmptyLadderIsLegal(t *testing.T) {
	p, err := NewPipeline(newTestStore(t), nil)
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcome.Applied)
	assert.Equal(t, store.ZeroVersion, outcome.FinalVersion)
}

func TestDuplicateStepNameRejected(t *testing.T) {
	steps := []Step{
		StepFunc{StepName: "same", FromVersion: "0.0.0", ToVersion: "1.0.0", Fn: okFn},
		StepFunc{StepName: "same", FromVersion: "1.0.0", ToVersion: "2.0.0", Fn: okFn},
	}
	_, err := NewPipeline(newTestStore(t), steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step")
}

func TestDuplicateRungRejected(t *testing.T) {
	steps := []Step{
		StepFunc{StepName: "a", FromVersion: "1.0.0", ToVersion: "2.0.0", Fn: okFn},
		StepFunc{StepName: "b", FromVersion: "1.0.0", ToVersion: "2.0.0", Fn: okFn},
	}
	_, err := NewPipeline(newTestStore(t), steps)
	require.Error(t, err)
	// Rejected as a ladder break or duplicate rung; either way construction fails
}

func TestLadderBreakRejected(t *testing.T) {
	steps := []Step{
		StepFunc{StepName: "a", FromVersion: "1.0.0", ToVersion: "1.1.0", Fn: okFn},
		StepFunc{StepName: "b", FromVersion: "1.5.0", ToVersion: "2.0.0", Fn: okFn},
	}
	_, err := NewPipeline(newTestStore(t), steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ladder break")
}

func TestNonAdvancingStepRejected(t *testing.T) {
	steps := []Step{
		StepFunc{StepName: "a", FromVersion: "1.1.0", ToVersion: "1.1.0", Fn: okFn},
	}
	_, err := NewPipeline(newTestStore(t), steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not advance")
}

func TestInvalidVersionRejected(t *testing.T) {
	steps := []Step{
		StepFunc{StepName: "a", FromVersion: "one", ToVersion: "1.1.0", Fn: okFn},
	}
	_, err := NewPipeline(newTestStore(t), steps)
	assert.Error(t, err)
}

func okFn(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
	return result.Ok(payload)
}

// =============================================================================
// Execution semantics
// =============================================================================

func TestRunExecutesStepsInOrder(t *testing.T) {
	ladder := testLadder()
	ds := newTestStore(t)
	p, err := NewPipeline(ds, asSteps(ladder))
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"init-descriptor", "rename-columns", "fold-timeslices"}, outcome.Applied)
	assert.Equal(t, "0.0.0", outcome.FromVersion)
	assert.Equal(t, "2.0.0", outcome.FinalVersion)
	for _, s := range ladder {
		assert.Equal(t, int32(1), s.applies.Load(), "step %s", s.name)
	}

	// Descriptor records the final rung
	desc, err := ds.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", desc.SchemaVersion)
}

func TestRunFailFast(t *testing.T) {
	ladder := testLadder()
	boom := errors.New("column mapping missing")
	ladder[1].fail = boom

	ds := newTestStore(t)
	p, err := NewPipeline(ds, asSteps(ladder))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "rename-columns", stepErr.Step)
	assert.Equal(t, 1, stepErr.Index)
	assert.True(t, errors.Is(err, boom))

	// Steps after the failure are never invoked
	assert.Equal(t, int32(1), ladder[0].applies.Load())
	assert.Equal(t, int32(1), ladder[1].applies.Load())
	assert.Equal(t, int32(0), ladder[2].applies.Load())

	// The descriptor still reports the pre-run version: a failed run is
	// not a resumption point
	desc, err := ds.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, store.ZeroVersion, desc.SchemaVersion)
}

func TestRerunSkipsCompletedRungs(t *testing.T) {
	ladder := testLadder()
	ds := newTestStore(t)
	p, err := NewPipeline(ds, asSteps(ladder))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// Second full run is a no-op: each step executed exactly once overall
	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcome.Applied)
	assert.Equal(t, "2.0.0", outcome.FinalVersion)
	for _, s := range ladder {
		assert.Equal(t, int32(1), s.applies.Load(), "step %s", s.name)
	}
}

func TestRunResumesFromDescriptorVersion(t *testing.T) {
	ladder := testLadder()
	ds := newTestStore(t)
	require.NoError(t, ds.WriteDescriptor(&store.Descriptor{SchemaVersion: "1.0.0"}))

	p, err := NewPipeline(ds, asSteps(ladder))
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rename-columns", "fold-timeslices"}, outcome.Applied)
	assert.Equal(t, int32(0), ladder[0].applies.Load())
}

func TestRunRejectsMisalignedVersion(t *testing.T) {
	ds := newTestStore(t)
	require.NoError(t, ds.WriteDescriptor(&store.Descriptor{SchemaVersion: "1.0.5"}))

	p, err := NewPipeline(ds, asSteps(testLadder()))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not align")
}

func TestRunBeyondLadderIsNoOp(t *testing.T) {
	ds := newTestStore(t)
	require.NoError(t, ds.WriteDescriptor(&store.Descriptor{SchemaVersion: "3.0.0"}))

	p, err := NewPipeline(ds, asSteps(testLadder()))
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcome.Applied)
	assert.Equal(t, "3.0.0", outcome.FinalVersion)
}

func TestRunWithTargetStopsEarly(t *testing.T) {
	ladder := testLadder()
	ds := newTestStore(t)
	p, err := NewPipeline(ds, asSteps(ladder), WithTarget("1.1.0"))
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"init-descriptor", "rename-columns"}, outcome.Applied)
	assert.Equal(t, "1.1.0", outcome.FinalVersion)
	assert.Equal(t, int32(0), ladder[2].applies.Load())
}

func TestNewPipelineRejectsNonRungTarget(t *testing.T) {
	// A target between rungs must fail construction, not silently run
	// the whole ladder past the pinned version
	ladder := testLadder()
	_, err := NewPipeline(newTestStore(t), asSteps(ladder), WithTarget("1.5.0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches no ladder rung")
	for _, s := range ladder {
		assert.Equal(t, int32(0), s.applies.Load())
	}
}

func TestNewPipelineRejectsMalformedTarget(t *testing.T) {
	_, err := NewPipeline(newTestStore(t), asSteps(testLadder()), WithTarget("latest"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target version")
}

func TestRunWithShortFormTarget(t *testing.T) {
	// "1.1" names the 1.1.0 rung under semver comparison
	ladder := testLadder()
	p, err := NewPipeline(newTestStore(t), asSteps(ladder), WithTarget("1.1"))
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"init-descriptor", "rename-columns"}, outcome.Applied)
	assert.Equal(t, "1.1.0", outcome.FinalVersion)
	assert.Equal(t, int32(0), ladder[2].applies.Load())
}

func TestRunMissingStoreFails(t *testing.T) {
	ds := store.NewFolderStore(t.TempDir()+"/nope", nil)
	p, err := NewPipeline(ds, asSteps(testLadder()))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsStoreMissing(err))
}

func TestRunCancelledContext(t *testing.T) {
	ladder := testLadder()
	ds := newTestStore(t)
	p, err := NewPipeline(ds, asSteps(ladder))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), ladder[0].applies.Load())
}

func TestPayloadThreadsAcrossSteps(t *testing.T) {
	var sawPrevious bool
	steps := []Step{
		StepFunc{StepName: "first", FromVersion: "0.0.0", ToVersion: "1.0.0",
			Fn: func(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
				payload["marker"] = "set-by-first"
				return result.Ok(payload)
			}},
		StepFunc{StepName: "second", FromVersion: "1.0.0", ToVersion: "2.0.0",
			Fn: func(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
				sawPrevious = payload["marker"] == "set-by-first"
				return result.Ok(payload)
			}},
	}
	p, err := NewPipeline(newTestStore(t), steps)
	require.NoError(t, err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sawPrevious)
	assert.Equal(t, "set-by-first", outcome.Payload["marker"])
}

// =============================================================================
// RunStep
// =============================================================================

func TestRunStepConvertsPanicToError(t *testing.T) {
	step := StepFunc{StepName: "explode", FromVersion: "0.0.0", ToVersion: "1.0.0",
		Fn: func(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
			panic("disk fell off")
		}}

	res := RunStep(context.Background(), step, Payload{}, &StepContext{})
	require.True(t, res.IsErr())
	assert.Contains(t, res.UnwrapErr().Error(), "disk fell off")
}

func TestRunStepPropagatesContractViolations(t *testing.T) {
	step := StepFunc{StepName: "misuse", FromVersion: "0.0.0", ToVersion: "1.0.0",
		Fn: func(ctx context.Context, payload Payload, sc *StepContext) result.Result[Payload] {
			// Unwrapping the wrong variant is a bug and must stay fatal
			result.Err[int](errors.New("boom")).Unwrap()
			return result.Ok(payload)
		}}

	assert.Panics(t, func() {
		RunStep(context.Background(), step, Payload{}, &StepContext{})
	})
}

// =============================================================================
// Recorder
// =============================================================================

type memRecorder struct {
	entries []string
	fail    bool
}

func (m *memRecorder) RecordStep(datasetPath, runID, step, from, to string, stepErr error) error {
	if m.fail {
		return errors.New("journal unavailable")
	}
	m.entries = append(m.entries, step)
	return nil
}

func TestRecorderSeesEveryExecutedStep(t *testing.T) {
	rec := &memRecorder{}
	ladder := testLadder()
	ladder[2].fail = errors.New("boom")

	p, err := NewPipeline(newTestStore(t), asSteps(ladder), WithRecorder(rec))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"init-descriptor", "rename-columns", "fold-timeslices"}, rec.entries)
}

func TestRecorderFailureIsNotFatal(t *testing.T) {
	rec := &memRecorder{fail: true}
	p, err := NewPipeline(newTestStore(t), asSteps(testLadder()), WithRecorder(rec))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.NoError(t, err)
}

// =============================================================================
// Report
// =============================================================================

func TestReportRender(t *testing.T) {
	report := Report{Upgraded: "reeds", Folder: "/data/case"}
	raw, err := report.Render()
	require.NoError(t, err)

	parsed, err := ParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, "reeds", parsed.Upgraded)
	assert.Equal(t, "/data/case", parsed.Folder)
	assert.Empty(t, parsed.Path)
}

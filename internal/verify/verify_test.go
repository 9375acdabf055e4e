package verify

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilverify/internal/compiler"
	"github.com/roach88/ilverify/internal/store"
	"github.com/roach88/ilverify/internal/typecheck"
)

// mixedUnit has two failing roots among five.
const mixedUnit = `
methods: alpha: {
	inputs: ["i32"]
	locals: [{name: "acc", type: "i64"}]
	body: [
		{stloc: {local: 0, value: {ldarg: 0}}},
		{nop: {}},
		{void_ret: {}},
	]
}
methods: beta: {
	body: [
		{pop: {ldarg: 3}},
		{void_ret: {}},
	]
}
`

const cleanUnit = `
methods: id: {
	inputs: ["i32"]
	output: "i32"
	body: [{ret: {ldarg: 0}}]
}
`

func compileUnit(t *testing.T, src string) *compiler.Unit {
	t.Helper()
	u, err := compiler.CompileUnit(cuecontext.New().CompileString(src))
	require.NoError(t, err)
	return u
}

func testOptions() Options {
	return Options{
		Logger: DiscardLogger(),
		IDs:    NewFixedGenerator("run-1", "run-2", "run-3"),
	}
}

func TestRunCleanUnit(t *testing.T) {
	report, err := Run(context.Background(), compileUnit(t, cleanUnit), testOptions())
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 1, report.Methods)
	assert.Equal(t, 1, report.Roots)
	assert.NotNil(t, report.Failures)
	assert.Nil(t, report.Stopped)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	report, err := Run(context.Background(), compileUnit(t, mixedUnit), testOptions())
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Methods)
	assert.Equal(t, 5, report.Roots)
	assert.Nil(t, report.Stopped)

	require.Len(t, report.Failures, 2)
	first, second := report.Failures[0], report.Failures[1]

	assert.Equal(t, "alpha", first.Method)
	assert.Equal(t, 0, first.Root)
	assert.Equal(t, "StLoc", first.Kind)
	assert.Equal(t, typecheck.ErrCodeLocalAssignmentWrong, first.Code)
	assert.True(t, typecheck.IsCode(first.Err, typecheck.ErrCodeLocalAssignmentWrong))
	assert.Equal(t, first.Err.Error(), first.Message)
	assert.True(t, strings.HasPrefix(first.Graph, "digraph G{"), first.Graph)
	assert.Contains(t, first.Graph, `color = "red"`)

	assert.Equal(t, "beta", second.Method)
	assert.Equal(t, 0, second.Root)
	assert.Equal(t, typecheck.ErrCodeArgOutOfRange, second.Code)
}

// boxUnit takes a field address through a bare class instance.
const boxUnit = `
classes: Box: { valuetype: false, fields: { v: "i32" } }
methods: peek: {
	inputs: ["class(Box)"]
	body: [
		{pop: {ldflda: {addr: {ldarg: 0}, field: "Box::v"}}},
		{pop: {ldfld: {addr: {ldarg: 0}, field: "Box::v"}}},
		{void_ret: {}},
	]
}
`

func TestRunFieldAddressThroughBareClass(t *testing.T) {
	var report *Report
	require.NotPanics(t, func() {
		var err error
		report, err = Run(context.Background(), compileUnit(t, boxUnit), testOptions())
		require.NoError(t, err)
	})

	assert.Equal(t, 3, report.Roots)
	require.Len(t, report.Failures, 1)
	f := report.Failures[0]
	assert.Equal(t, "peek", f.Method)
	assert.Equal(t, 0, f.Root)
	assert.Equal(t, "Pop", f.Kind)
	assert.Equal(t, typecheck.ErrCodeTypeNotPtr, f.Code)
	assert.Contains(t, f.Message, "class(Box)")
}

func TestRunFailFast(t *testing.T) {
	opts := testOptions()
	opts.FailFast = true

	report, err := Run(context.Background(), compileUnit(t, mixedUnit), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Methods)
	assert.Equal(t, 1, report.Roots)
	require.Len(t, report.Failures, 1)
	require.Error(t, report.Stopped)
	assert.True(t, IsBudgetExceeded(report.Stopped))

	var be *BudgetExceededError
	require.ErrorAs(t, report.Stopped, &be)
	assert.Equal(t, "alpha", be.Method)
	assert.Equal(t, 0, be.Root)
	assert.Equal(t, 1, be.Limit)
}

func TestRunMaxFailures(t *testing.T) {
	opts := testOptions()
	opts.MaxFailures = 2

	report, err := Run(context.Background(), compileUnit(t, mixedUnit), opts)
	require.NoError(t, err)

	// Stops on beta[0]; beta[1] is never checked.
	assert.Equal(t, 4, report.Roots)
	assert.Len(t, report.Failures, 2)
	assert.True(t, IsBudgetExceeded(report.Stopped))
}

func TestRunMemoizeSameVerdicts(t *testing.T) {
	u := compileUnit(t, mixedUnit)

	plain, err := Run(context.Background(), u, testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.Memoize = true
	memo, err := Run(context.Background(), u, opts)
	require.NoError(t, err)

	require.Len(t, memo.Failures, len(plain.Failures))
	for i := range plain.Failures {
		assert.Equal(t, plain.Failures[i].Code, memo.Failures[i].Code)
		assert.Equal(t, plain.Failures[i].Message, memo.Failures[i].Message)
		assert.Equal(t, plain.Failures[i].Graph, memo.Failures[i].Graph)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, compileUnit(t, mixedUnit), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRecordsVerdicts(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "verdicts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	u := compileUnit(t, mixedUnit)
	opts := testOptions()
	opts.Store = st
	opts.UnitName = "mixed.cue"
	opts.ToolVersion = "1.2.3"
	opts.Memoize = true

	report, err := Run(context.Background(), u, opts)
	require.NoError(t, err)

	ctx := context.Background()
	run, err := st.ReadRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, "mixed.cue", run.Unit)
	assert.Equal(t, u.ContentID(), run.UnitHash)
	assert.Equal(t, "1.2.3", run.ToolVersion)
	assert.Equal(t, store.Options{Memoize: true}, run.Options)

	verdicts, err := st.ReadVerdicts(ctx, report.RunID)
	require.NoError(t, err)
	require.Len(t, verdicts, 5)
	for i, v := range verdicts {
		assert.Equal(t, int64(i+1), v.Seq)
	}
	assert.Equal(t, store.StatusFail, verdicts[0].Status)
	assert.Equal(t, "LOCAL_ASSIGNMENT_WRONG", verdicts[0].Code)
	assert.Equal(t, report.Failures[0].Graph, verdicts[0].Graph)
	assert.Equal(t, store.StatusOK, verdicts[1].Status)
	assert.Empty(t, verdicts[1].Graph)
	assert.Equal(t, "beta", verdicts[3].Method)
	assert.Equal(t, store.StatusFail, verdicts[3].Status)

	// A second run gets the next seq.
	report2, err := Run(ctx, u, opts)
	require.NoError(t, err)
	run2, err := st.ReadRun(ctx, report2.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), run2.Seq)

	changes, err := st.DiffRuns(ctx, report.RunID, report2.RunID)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestRunLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	opts := testOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(context.Background(), compileUnit(t, mixedUnit), opts)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="root failed typecheck"`)
	assert.Contains(t, out, "code=LOCAL_ASSIGNMENT_WRONG")
	assert.Contains(t, out, `msg="root verified"`)
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, `msg="run complete"`)
}

func TestRunDefaultIDIsUUIDv7(t *testing.T) {
	report, err := Run(context.Background(), compileUnit(t, cleanUnit), Options{Logger: DiscardLogger()})
	require.NoError(t, err)
	assert.Len(t, report.RunID, 36)
}

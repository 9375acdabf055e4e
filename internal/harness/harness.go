package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ilverify/internal/compiler"
	"github.com/roach88/ilverify/internal/store"
	"github.com/roach88/ilverify/internal/verify"
)

// RunID is the run ID of every scenario run.
const RunID = "scenario-run"

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the unit (or check its expected compile error)
// 2. Verify every root into the in-memory verdict log
// 3. Read the verdicts back in checking order
// 4. Compare expectations and evaluate assertions
//
// The returned error is non-nil only when the scenario could not be
// executed; unmet expectations are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	unit, err := compiler.LoadFile(scenario.Unit)
	if scenario.CompileError != "" {
		switch {
		case err == nil:
			result.AddError(fmt.Sprintf("expected compile error containing %q, unit compiled", scenario.CompileError))
		case !strings.Contains(err.Error(), scenario.CompileError):
			result.AddError(fmt.Sprintf("expected compile error containing %q, got %v", scenario.CompileError, err))
		}
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile unit: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	report, err := verify.Run(ctx, unit, verify.Options{
		FailFast: scenario.Options.FailFast,
		Memoize:  scenario.Options.Memoize,
		Logger:   verify.DiscardLogger(),
		Store:    st,
		UnitName: scenario.Unit,
		IDs:      verify.NewFixedGenerator(RunID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify unit: %w", err)
	}

	verdicts, err := st.ReadVerdicts(ctx, report.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read verdicts: %w", err)
	}
	for _, v := range verdicts {
		result.Verdicts = append(result.Verdicts, VerdictLine{
			Method:  v.Method,
			Root:    v.RootIndex,
			Status:  string(v.Status),
			Code:    v.Code,
			Message: v.Message,
			Graph:   v.Graph,
		})
	}

	for _, msg := range checkExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

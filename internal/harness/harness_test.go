package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAndRun(t *testing.T, path string) *Result {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestRun_CleanUnit(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/swap.yaml")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Verdicts, 4)
	for i, v := range result.Verdicts {
		assert.Equal(t, "swap", v.Method)
		assert.Equal(t, i, v.Root)
		assert.Equal(t, "ok", v.Status)
		assert.Empty(t, v.Graph)
	}
}

func TestRun_FailingRootExpected(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/widen.yaml")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Verdicts, 2)
	assert.Equal(t, "LOCAL_ASSIGNMENT_WRONG", result.Verdicts[0].Code)
	assert.Equal(t, "LOCAL_ASSIGNMENT_WRONG: local 0 of type i64 assigned i32", result.Verdicts[0].Message)
	assert.NotEmpty(t, result.Verdicts[0].Graph)
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/mixed.yaml")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Verdicts, 5)
}

func TestRun_FailFast(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/failfast.yaml")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Verdicts, 1)
}

func TestRun_ExpectedCompileError(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/broken.yaml")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Verdicts)
}

func TestRun_CompileErrorMismatch(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/broken.yaml")
	require.NoError(t, err)
	s.CompileError = "something else"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected compile error containing "something else"`)
}

func TestRun_CompileErrorNotRaised(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/swap.yaml")
	require.NoError(t, err)
	s.CompileError = "anything"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unit compiled")
}

func TestRun_UnexpectedCompileError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/broken.yaml")
	require.NoError(t, err)
	s.CompileError = ""

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile unit")
}

func TestRun_UnmetExpectations(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/mixed.yaml")
	require.NoError(t, err)
	s.Expect = []Expectation{
		{Method: "alpha", Root: 0, OK: true},
		{Method: "alpha", Root: 1, Code: "LOCAL_ASSIGNMENT_WRONG"},
		{Method: "beta", Root: 0, Code: "LOCAL_ASSIGNMENT_WRONG"},
		{Method: "gamma", Root: 0, OK: true},
	}
	s.Assertions = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "alpha[0]: expected ok, got LOCAL_ASSIGNMENT_WRONG")
	assert.Equal(t, "alpha[1]: expected LOCAL_ASSIGNMENT_WRONG, got ok", result.Errors[1])
	assert.Contains(t, result.Errors[2], "beta[0]: expected LOCAL_ASSIGNMENT_WRONG, got ARG_OUT_OF_RANGE")
	assert.Equal(t, "gamma[0]: root was not checked", result.Errors[3])
}

func TestRun_FailFastLeavesRootsUnchecked(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/failfast.yaml")
	require.NoError(t, err)
	s.Expect = append(s.Expect, Expectation{Method: "beta", Root: 1, OK: true})

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "beta[1]: root was not checked")
}

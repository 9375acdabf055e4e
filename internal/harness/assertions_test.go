package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Verdicts = []VerdictLine{
		{Method: "a", Root: 0, Status: "ok"},
		{Method: "a", Root: 1, Status: "fail", Code: "X", Message: "X: bad", Graph: `digraph G{ n0 [color = "red"] }`},
		{Method: "b", Root: 0, Status: "fail", Code: "Y", Message: "Y: worse", Graph: "digraph G{}"},
		{Method: "c", Root: 0, Status: "ok"},
	}
	return r
}

func TestAssertFailureCount(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertFailureCount(r, Assertion{Type: AssertFailureCount, Count: 2}))

	err := assertFailureCount(r, Assertion{Type: AssertFailureCount, Count: 0})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "0 failures", ae.Expected)
	assert.Equal(t, "2 failures", ae.Actual)
}

func TestAssertCodeCount(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertCodeCount(r, Assertion{Code: "X", Count: 1}))
	assert.NoError(t, assertCodeCount(r, Assertion{Code: "Z", Count: 0}))
	assert.Error(t, assertCodeCount(r, Assertion{Code: "Y", Count: 2}))
}

func TestAssertMethodClean(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertMethodClean(r, Assertion{Method: "c"}))

	err := assertMethodClean(r, Assertion{Method: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failures [1] X")

	err = assertMethodClean(r, Assertion{Method: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not checked")
}

func TestAssertGraphContains(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertGraphContains(r, Assertion{Method: "a", Root: 1, Text: `color = "red"`}))

	err := assertGraphContains(r, Assertion{Method: "b", Root: 0, Text: "red"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `containing "red"`)

	err = assertGraphContains(r, Assertion{Method: "a", Root: 0, Text: "red"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no graph recorded")
}

func TestAssertionError_ListsVerdicts(t *testing.T) {
	err := &AssertionError{
		Type:     AssertFailureCount,
		Expected: "0 failures",
		Actual:   "1 failures",
		Verdicts: []VerdictLine{
			{Method: "m", Root: 0, Status: "ok"},
			{Method: "m", Root: 1, Status: "fail", Code: "X"},
		},
	}
	want := "Assertion failed: failure_count\n" +
		"  Expected: 0 failures\n" +
		"  Actual: 1 failures\n" +
		"\nVerdicts:\n" +
		"  m[0] ok\n" +
		"  m[1] fail X\n"
	assert.Equal(t, want, err.Error())
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertFailureCount, Count: 2},
		{Type: AssertMethodClean, Method: "a"},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "method_clean")
	assert.Equal(t, `assertion[2]: unknown assertion type "bogus"`, errs[1])
}

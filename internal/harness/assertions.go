package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Verdicts []VerdictLine // All verdicts for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nVerdicts:\n")
	for _, v := range e.Verdicts {
		if v.Code != "" {
			fmt.Fprintf(&buf, "  %s[%d] %s %s\n", v.Method, v.Root, v.Status, v.Code)
			continue
		}
		fmt.Fprintf(&buf, "  %s[%d] %s\n", v.Method, v.Root, v.Status)
	}
	return buf.String()
}

// checkExpectations compares every expectation with the verdict of its root.
func checkExpectations(result *Result, expect []Expectation) []string {
	var errs []string
	for _, e := range expect {
		where := fmt.Sprintf("%s[%d]", e.Method, e.Root)
		v, ok := result.verdict(e.Method, e.Root)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("%s: root was not checked", where))
		case e.OK && v.Code != "":
			errs = append(errs, fmt.Sprintf("%s: expected ok, got %s", where, v.Message))
		case !e.OK && v.Code == "":
			errs = append(errs, fmt.Sprintf("%s: expected %s, got ok", where, e.Code))
		case !e.OK && v.Code != e.Code:
			errs = append(errs, fmt.Sprintf("%s: expected %s, got %s", where, e.Code, v.Message))
		}
	}
	return errs
}

// assertFailureCount checks the number of failing roots.
func assertFailureCount(result *Result, assertion Assertion) error {
	got := len(result.failures())
	if got == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFailureCount,
		Expected: fmt.Sprintf("%d failures", assertion.Count),
		Actual:   fmt.Sprintf("%d failures", got),
		Verdicts: result.Verdicts,
	}
}

// assertCodeCount checks the number of failures carrying a code.
func assertCodeCount(result *Result, assertion Assertion) error {
	got := 0
	for _, v := range result.failures() {
		if v.Code == assertion.Code {
			got++
		}
	}
	if got == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCodeCount,
		Expected: fmt.Sprintf("%d failures with %s", assertion.Count, assertion.Code),
		Actual:   fmt.Sprintf("%d failures with %s", got, assertion.Code),
		Verdicts: result.Verdicts,
	}
}

// assertMethodClean checks that a method was checked and none of its roots
// failed.
func assertMethodClean(result *Result, assertion Assertion) error {
	checked := 0
	var failed []string
	for _, v := range result.Verdicts {
		if v.Method != assertion.Method {
			continue
		}
		checked++
		if v.Code != "" {
			failed = append(failed, fmt.Sprintf("[%d] %s", v.Root, v.Code))
		}
	}

	if checked == 0 {
		return &AssertionError{
			Type:     AssertMethodClean,
			Expected: fmt.Sprintf("method %s checked and clean", assertion.Method),
			Actual:   "method not checked",
			Verdicts: result.Verdicts,
		}
	}
	if len(failed) > 0 {
		return &AssertionError{
			Type:     AssertMethodClean,
			Expected: fmt.Sprintf("method %s clean", assertion.Method),
			Actual:   "failures " + strings.Join(failed, ", "),
			Verdicts: result.Verdicts,
		}
	}
	return nil
}

// assertGraphContains checks the diagnostic graph of a failing root.
func assertGraphContains(result *Result, assertion Assertion) error {
	where := fmt.Sprintf("%s[%d]", assertion.Method, assertion.Root)
	v, ok := result.verdict(assertion.Method, assertion.Root)
	if !ok || v.Graph == "" {
		return &AssertionError{
			Type:     AssertGraphContains,
			Expected: fmt.Sprintf("graph for failing root %s", where),
			Actual:   "no graph recorded",
			Verdicts: result.Verdicts,
		}
	}
	if !strings.Contains(v.Graph, assertion.Text) {
		return &AssertionError{
			Type:     AssertGraphContains,
			Expected: fmt.Sprintf("graph of %s containing %q", where, assertion.Text),
			Actual:   v.Graph,
			Verdicts: result.Verdicts,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFailureCount:
			err = assertFailureCount(result, assertion)
		case AssertCodeCount:
			err = assertCodeCount(result, assertion)
		case AssertMethodClean:
			err = assertMethodClean(result, assertion)
		case AssertGraphContains:
			err = assertGraphContains(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

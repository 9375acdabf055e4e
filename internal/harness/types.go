package harness

import "github.com/roach88/ilverify/internal/store"

// VerdictLine is the verdict for one root as read back from the log.
type VerdictLine struct {
	Method  string `json:"method"`
	Root    int    `json:"root"`
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Graph   string `json:"-"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Verdicts lists every checked root in checking order.
	Verdicts []VerdictLine `json:"verdicts"`

	// Errors contains one message per unmet expectation or assertion.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Verdicts: []VerdictLine{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// verdict returns the verdict of method[root], if it was checked.
func (r *Result) verdict(method string, root int) (VerdictLine, bool) {
	for _, v := range r.Verdicts {
		if v.Method == method && v.Root == root {
			return v, true
		}
	}
	return VerdictLine{}, false
}

// failures returns the failing verdicts.
func (r *Result) failures() []VerdictLine {
	var out []VerdictLine
	for _, v := range r.Verdicts {
		if v.Status == string(store.StatusFail) {
			out = append(out, v)
		}
	}
	return out
}

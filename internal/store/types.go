package store

// Status is the outcome of checking one root.
type Status string

const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
)

// Options records how a run was configured.
type Options struct {
	FailFast bool `json:"fail_fast"`
	Memoize  bool `json:"memoize"`
}

// Run is one check of a unit.
type Run struct {
	ID          string
	Seq         int64
	Unit        string
	UnitHash    string
	Options     Options
	ToolVersion string
}

// Verdict is the typecheck outcome for one root of one method.
//
// Code, Message and Graph are empty for StatusOK.
type Verdict struct {
	RunID     string
	Seq       int64
	Method    string
	RootIndex int
	RootID    string
	Status    Status
	Code      string
	Message   string
	Graph     string
}

// Summary aggregates the verdicts of a run.
type Summary struct {
	Run      Run
	Roots    int
	Failures int
}

// Change is a root whose verdict differs between two runs. Before or After
// is nil when the root exists in only one of them.
type Change struct {
	Method    string
	RootIndex int
	Before    *Verdict
	After     *Verdict
}

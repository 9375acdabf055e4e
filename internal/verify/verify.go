package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ilverify/internal/compiler"
	"github.com/roach88/ilverify/internal/diag"
	"github.com/roach88/ilverify/internal/ir"
	"github.com/roach88/ilverify/internal/store"
	"github.com/roach88/ilverify/internal/typecheck"
)

// DefaultToolVersion is recorded for runs that do not name a version.
const DefaultToolVersion = "dev"

// Options configures a run. The zero value checks every root, keeps no
// log and writes nothing.
type Options struct {
	// FailFast stops the run at the first failing root.
	FailFast bool

	// MaxFailures stops the run once this many roots have failed.
	// 0 means unlimited. FailFast is the same as MaxFailures 1.
	MaxFailures int

	// Memoize shares node results between the roots of a method. Without
	// it every root is checked from scratch.
	Memoize bool

	// Logger receives per-root progress. nil means slog.Default().
	Logger *slog.Logger

	// Store, when set, receives the run and its verdicts.
	Store *store.Store

	// UnitName is recorded as the run's unit, typically the fixture path.
	UnitName string

	// ToolVersion is recorded with the run. Empty means DefaultToolVersion.
	ToolVersion string

	// IDs generates the run ID. nil means UUIDv7Generator.
	IDs RunIDGenerator
}

// Failure is one root that did not typecheck.
type Failure struct {
	Method  string              `json:"method"`
	Root    int                 `json:"root"`
	Kind    string              `json:"kind"`
	Code    typecheck.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Graph   string              `json:"graph"`
	Err     error               `json:"-"`
}

// Report summarizes a run.
type Report struct {
	RunID    string    `json:"run_id"`
	Methods  int       `json:"methods"`
	Roots    int       `json:"roots"`
	Failures []Failure `json:"failures"`

	// Stopped is non-nil when the run ended before checking every root.
	// It is a *BudgetExceededError.
	Stopped error `json:"-"`
}

// OK reports whether every checked root typechecked.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Run checks every root of every method of u.
//
// Type errors are not returned as errors: they are collected in the report.
// The returned error is non-nil only when ctx is cancelled or the store
// cannot be written.
func Run(ctx context.Context, u *compiler.Unit, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	limit := opts.MaxFailures
	if opts.FailFast {
		limit = 1
	}

	report := &Report{RunID: ids.Generate(), Failures: []Failure{}}
	r := &runner{
		u:      u,
		opts:   opts,
		logger: logger.With("run_id", report.RunID),
		clock:  NewClock(),
		budget: newFailureBudget(limit),
		report: report,
	}

	if err := r.checkAll(ctx); err != nil {
		return nil, err
	}

	if opts.Store != nil {
		if err := r.record(ctx); err != nil {
			return nil, err
		}
	}

	r.logger.Info("run complete",
		"methods", report.Methods,
		"roots", report.Roots,
		"failures", len(report.Failures),
		"stopped", report.Stopped != nil,
	)
	return report, nil
}

type runner struct {
	u        *compiler.Unit
	opts     Options
	logger   *slog.Logger
	clock    *Clock
	budget   *failureBudget
	report   *Report
	verdicts []store.Verdict
}

func (r *runner) checkAll(ctx context.Context) error {
	for i := range r.u.Methods {
		m := &r.u.Methods[i]
		r.report.Methods++

		var shared *typecheck.Checker
		if r.opts.Memoize {
			shared = typecheck.New(r.u.Arena, m.Func)
		}

		for idx, id := range m.Roots {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("verify %s[%d]: %w", m.Name, idx, err)
			}

			var err error
			if shared != nil {
				err = shared.Root(id)
			} else {
				err = typecheck.CheckRoot(r.u.Arena, m.Func, id)
			}
			r.report.Roots++

			if err == nil {
				r.pass(m, idx, id)
				continue
			}
			if stop := r.fail(m, idx, id, err); stop != nil {
				r.report.Stopped = stop
				return nil
			}
		}
	}
	return nil
}

func (r *runner) pass(m *compiler.Method, idx int, id ir.RootID) {
	r.logger.Debug("root verified",
		"method", m.Name,
		"root", idx,
		"kind", r.u.Arena.Root(id).Kind(),
	)
	r.verdicts = append(r.verdicts, store.Verdict{
		RunID:     r.report.RunID,
		Seq:       r.clock.Next(),
		Method:    m.Name,
		RootIndex: idx,
		RootID:    r.u.Arena.RootContentID(id),
		Status:    store.StatusOK,
	})
}

// fail records a failing root and returns non-nil when the run must stop.
func (r *runner) fail(m *compiler.Method, idx int, id ir.RootID, err error) error {
	f := Failure{
		Method:  m.Name,
		Root:    idx,
		Kind:    r.u.Arena.Root(id).Kind(),
		Code:    typecheck.CodeOf(err),
		Message: err.Error(),
		Graph:   diag.RenderRoot(r.u.Arena, m.Func, id),
		Err:     err,
	}
	r.report.Failures = append(r.report.Failures, f)

	r.logger.Warn("root failed typecheck",
		"method", m.Name,
		"root", idx,
		"kind", f.Kind,
		"code", string(f.Code),
		"error", err,
	)
	r.verdicts = append(r.verdicts, store.Verdict{
		RunID:     r.report.RunID,
		Seq:       r.clock.Next(),
		Method:    m.Name,
		RootIndex: idx,
		RootID:    r.u.Arena.RootContentID(id),
		Status:    store.StatusFail,
		Code:      string(f.Code),
		Message:   f.Message,
		Graph:     f.Graph,
	})

	return r.budget.Spend(m.Name, idx)
}

// record writes the run and its verdicts to the store.
func (r *runner) record(ctx context.Context) error {
	st := r.opts.Store
	seq, err := st.NextRunSeq(ctx)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	version := r.opts.ToolVersion
	if version == "" {
		version = DefaultToolVersion
	}
	run := store.Run{
		ID:       r.report.RunID,
		Seq:      seq,
		Unit:     r.opts.UnitName,
		UnitHash: r.u.ContentID(),
		Options: store.Options{
			FailFast: r.opts.FailFast,
			Memoize:  r.opts.Memoize,
		},
		ToolVersion: version,
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if err := st.WriteVerdicts(ctx, r.verdicts); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	r.logger.Debug("run recorded", "seq", seq, "verdicts", len(r.verdicts))
	return nil
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/ilverify/internal/compiler"
	"github.com/roach88/ilverify/internal/store"
	"github.com/roach88/ilverify/internal/verify"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	FailFast    bool
	MaxFailures int
	Memoize     bool
	Strict      bool   // structural problems fail the check
	Database    string // optional verdict log
	GraphsDir   string // directory for DOT graphs of failing roots
}

// CheckResult is the payload of the check command.
type CheckResult struct {
	Unit     string                     `json:"unit"`
	RunID    string                     `json:"run_id"`
	Methods  int                        `json:"methods"`
	Roots    int                        `json:"roots"`
	Failures []verify.Failure           `json:"failures"`
	Problems []compiler.ValidationError `json:"problems,omitempty"`
	Cycles   []compiler.CycleWarning    `json:"cycles,omitempty"`
	Stopped  string                     `json:"stopped,omitempty"`
	Graphs   []string                   `json:"graphs,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <unit.cue>",
		Short: "Typecheck every root of a fixture",
		Long: `Typecheck every root of every method in a CUE fixture.

Roots are checked in method name order and body order. Failing roots are
reported with their error code and, with --graphs, a Graphviz rendering of
the offending expression tree.

Exit codes:
  0 - Every root typechecks
  1 - One or more roots failed (or structural problems with --strict)
  2 - Command error (fixture not found, compile error, etc.)

Examples:
  ilverify check ./fixtures/swap.cue
  ilverify check ./fixtures/swap.cue --fail-fast
  ilverify check ./fixtures/swap.cue --db ./verdicts.db --graphs ./graphs
  ilverify check ./fixtures/swap.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd)
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first failing root")
	cmd.Flags().IntVar(&opts.MaxFailures, "max-failures", 0, "stop after this many failing roots (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Memoize, "memoize", false, "share node results between the roots of a method")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat structural problems as failures")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite verdict log")
	cmd.Flags().StringVar(&opts.GraphsDir, "graphs", "", "write a DOT graph per failing root to this directory")

	return cmd
}

// applyConfig fills flags the user did not set from the config file.
func (o *CheckOptions) applyConfig(cmd *cobra.Command) {
	cfg := o.config()
	flags := cmd.Flags()
	if !flags.Changed("fail-fast") {
		o.FailFast = cfg.FailFast
	}
	if !flags.Changed("memoize") {
		o.Memoize = cfg.Memoize
	}
	if !flags.Changed("db") {
		o.Database = cfg.DB
	}
	if !flags.Changed("graphs") {
		o.GraphsDir = cfg.GraphsDir
	}
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.MaxFailures < 0 {
		_ = formatter.Error(ErrCodeBadFlag, "--max-failures must be non-negative", nil)
		return NewExitError(ExitCommandError, "--max-failures must be non-negative")
	}

	u, err := LoadUnit(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d method(s) from %s", len(u.Methods), path)

	result := CheckResult{
		Unit:     path,
		Problems: compiler.Validate(u),
		Cycles:   compiler.AnalyzeCycles(u),
	}
	for _, c := range result.Cycles {
		formatter.VerboseLog("%s", c.Message)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	report, err := verify.Run(cmd.Context(), u, verify.Options{
		FailFast:    opts.FailFast,
		MaxFailures: opts.MaxFailures,
		Memoize:     opts.Memoize,
		Logger:      opts.logger(formatter.GetErrWriter()),
		Store:       st,
		UnitName:    path,
		ToolVersion: Version,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "verification aborted", err)
	}

	result.RunID = report.RunID
	result.Methods = report.Methods
	result.Roots = report.Roots
	result.Failures = report.Failures
	if report.Stopped != nil {
		result.Stopped = report.Stopped.Error()
	}

	if opts.GraphsDir != "" && len(report.Failures) > 0 {
		result.Graphs, err = writeGraphs(opts.GraphsDir, report.Failures)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write graphs", err)
		}
	}

	failed := !report.OK() || (opts.Strict && len(result.Problems) > 0)
	if opts.Format == "json" {
		return outputCheckJSON(formatter, result, failed)
	}
	return outputCheckText(formatter, result, failed)
}

// writeGraphs writes one <method>_<root>.dot file per failure and returns
// the paths written.
func writeGraphs(dir string, failures []verify.Failure) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create graphs directory: %w", err)
	}
	paths := make([]string, 0, len(failures))
	for _, f := range failures {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.dot", f.Method, f.Root))
		if err := os.WriteFile(path, []byte(f.Graph), 0644); err != nil {
			return nil, fmt.Errorf("failed to write graph: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// checkFailureMessage summarizes why a check failed.
func checkFailureMessage(result CheckResult) string {
	if len(result.Failures) > 0 {
		return fmt.Sprintf("%d root(s) failed typecheck", len(result.Failures))
	}
	return fmt.Sprintf("%d structural problem(s)", len(result.Problems))
}

func outputCheckJSON(formatter *OutputFormatter, result CheckResult, failed bool) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  result.RunID,
	}
	if failed {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TYPE_ERRORS",
			Message: checkFailureMessage(result),
		}
	}
	if err := formatter.JSON(response); err != nil {
		return err
	}
	if failed {
		return NewExitError(ExitFailure, checkFailureMessage(result))
	}
	return nil
}

func outputCheckText(formatter *OutputFormatter, result CheckResult, failed bool) error {
	w := formatter.Writer

	for _, p := range result.Problems {
		fmt.Fprintf(w, "! %s\n", p.Error())
	}
	for _, f := range result.Failures {
		fmt.Fprintf(w, "✗ %s[%d] %s: %s\n", f.Method, f.Root, f.Kind, f.Message)
	}
	for _, g := range result.Graphs {
		fmt.Fprintf(w, "  wrote %s\n", g)
	}
	if result.Stopped != "" {
		fmt.Fprintf(w, "Stopped early: %s\n", result.Stopped)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Check Summary: %d method(s), %d root(s), %d failed\n",
		result.Methods, result.Roots, len(result.Failures))

	if failed {
		return NewExitError(ExitFailure, checkFailureMessage(result))
	}

	fmt.Fprintln(w, "✓ All roots verified")
	return nil
}

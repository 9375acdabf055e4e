package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ilverify/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
	All      bool   // include passing roots
	Runs     bool   // list every run instead
	Code     string // list verdicts with this code across runs
	Diff     bool   // compare against the preceding run
}

// RunView is a stored run with its verdict counts.
type RunView struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Unit        string `json:"unit"`
	UnitHash    string `json:"unit_hash"`
	FailFast    bool   `json:"fail_fast"`
	Memoize     bool   `json:"memoize"`
	ToolVersion string `json:"tool_version"`
	Roots       int    `json:"roots"`
	Failures    int    `json:"failures"`
}

// VerdictView is a stored verdict.
type VerdictView struct {
	RunID   string `json:"run_id"`
	Method  string `json:"method"`
	Root    int    `json:"root"`
	RootID  string `json:"root_id"`
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ChangeView is a root whose verdict changed between two runs. An empty
// status means the root is absent from that run.
type ChangeView struct {
	Method string `json:"method"`
	Root   int    `json:"root"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// HistoryResult holds the history output. Only the sections the flags ask
// for are filled.
type HistoryResult struct {
	Run      *RunView      `json:"run,omitempty"`
	Runs     []RunView     `json:"runs,omitempty"`
	Verdicts []VerdictView `json:"verdicts,omitempty"`
	Previous *RunView      `json:"previous,omitempty"`
	Changes  []ChangeView  `json:"changes,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the verdict log",
		Long: `Query the SQLite verdict log written by check --db.

By default shows the failing verdicts of the latest run. Queries are
ordered by logical time, so their output is stable across invocations.

Examples:
  ilverify history --db ./verdicts.db
  ilverify history --db ./verdicts.db --all
  ilverify history --db ./verdicts.db --runs
  ilverify history --db ./verdicts.db --diff
  ilverify history --db ./verdicts.db --code LOCAL_ASSIGNMENT_WRONG
  ilverify history --db ./verdicts.db --run 0192... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.config().DB
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show this run instead of the latest")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include passing roots")
	cmd.Flags().BoolVar(&opts.Runs, "runs", false, "list every recorded run")
	cmd.Flags().StringVar(&opts.Code, "code", "", "list verdicts with this error code across runs")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "compare with the preceding run")
	cmd.MarkFlagsMutuallyExclusive("runs", "code", "diff")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Database == "" {
		_ = formatter.Error(ErrCodeBadFlag, "--db is required", nil)
		return NewExitError(ExitCommandError, "--db is required")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var result HistoryResult
	switch {
	case opts.Runs:
		result.Runs, err = listRuns(ctx, st)
	case opts.Code != "":
		result.Verdicts, err = verdictsByCode(ctx, st, opts.Code)
	default:
		err = showRun(ctx, st, opts, &result)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return outputNoRuns(formatter, opts)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to query verdict log", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}
	return outputHistoryText(formatter, opts, result)
}

func outputNoRuns(formatter *OutputFormatter, opts *HistoryOptions) error {
	if opts.RunID != "" {
		msg := fmt.Sprintf("run %s not found", opts.RunID)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: HistoryResult{}})
	}
	fmt.Fprintln(formatter.Writer, "No runs recorded.")
	return nil
}

// showRun fills the selected run, its verdicts and, with --diff, the
// changes since the preceding run.
func showRun(ctx context.Context, st *store.Store, opts *HistoryOptions, result *HistoryResult) error {
	var (
		run store.Run
		err error
	)
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if err != nil {
		return err
	}

	view, err := runView(ctx, st, run.ID)
	if err != nil {
		return err
	}
	result.Run = &view

	var verdicts []store.Verdict
	if opts.All {
		verdicts, err = st.ReadVerdicts(ctx, run.ID)
	} else {
		verdicts, err = st.ReadFailures(ctx, run.ID)
	}
	if err != nil {
		return fmt.Errorf("read verdicts: %w", err)
	}
	result.Verdicts = verdictViews(verdicts)

	if !opts.Diff {
		return nil
	}
	prev, ok, err := precedingRun(ctx, st, run)
	if err != nil || !ok {
		return err
	}
	prevView, err := runView(ctx, st, prev.ID)
	if err != nil {
		return err
	}
	result.Previous = &prevView

	changes, err := st.DiffRuns(ctx, prev.ID, run.ID)
	if err != nil {
		return err
	}
	result.Changes = make([]ChangeView, len(changes))
	for i, c := range changes {
		result.Changes[i] = ChangeView{
			Method: c.Method,
			Root:   c.RootIndex,
			Before: verdictLabel(c.Before),
			After:  verdictLabel(c.After),
		}
	}
	return nil
}

// precedingRun returns the run recorded just before run, if any.
func precedingRun(ctx context.Context, st *store.Store, run store.Run) (store.Run, bool, error) {
	runs, err := st.ReadRuns(ctx)
	if err != nil {
		return store.Run{}, false, fmt.Errorf("read runs: %w", err)
	}
	var prev store.Run
	found := false
	for _, r := range runs {
		if r.Seq >= run.Seq {
			break
		}
		prev, found = r, true
	}
	return prev, found, nil
}

func listRuns(ctx context.Context, st *store.Store) ([]RunView, error) {
	runs, err := st.ReadRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, sql.ErrNoRows
	}
	views := make([]RunView, 0, len(runs))
	for _, r := range runs {
		v, err := runView(ctx, st, r.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func verdictsByCode(ctx context.Context, st *store.Store, code string) ([]VerdictView, error) {
	verdicts, err := st.ReadVerdictsByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("read verdicts: %w", err)
	}
	return verdictViews(verdicts), nil
}

func runView(ctx context.Context, st *store.Store, runID string) (RunView, error) {
	sum, err := st.Summarize(ctx, runID)
	if err != nil {
		return RunView{}, err
	}
	return RunView{
		ID:          sum.Run.ID,
		Seq:         sum.Run.Seq,
		Unit:        sum.Run.Unit,
		UnitHash:    sum.Run.UnitHash,
		FailFast:    sum.Run.Options.FailFast,
		Memoize:     sum.Run.Options.Memoize,
		ToolVersion: sum.Run.ToolVersion,
		Roots:       sum.Roots,
		Failures:    sum.Failures,
	}, nil
}

func verdictViews(verdicts []store.Verdict) []VerdictView {
	views := make([]VerdictView, len(verdicts))
	for i, v := range verdicts {
		views[i] = VerdictView{
			RunID:   v.RunID,
			Method:  v.Method,
			Root:    v.RootIndex,
			RootID:  v.RootID,
			Status:  string(v.Status),
			Code:    v.Code,
			Message: v.Message,
		}
	}
	return views
}

// verdictLabel is "ok", the failure code, or "" for a missing verdict.
func verdictLabel(v *store.Verdict) string {
	switch {
	case v == nil:
		return ""
	case v.Status == store.StatusOK:
		return string(store.StatusOK)
	}
	return v.Code
}

func outputHistoryText(formatter *OutputFormatter, opts *HistoryOptions, result HistoryResult) error {
	w := formatter.Writer

	if opts.Runs {
		fmt.Fprintf(w, "%-4s  %-36s  %6s  %8s  %s\n", "SEQ", "RUN", "ROOTS", "FAILURES", "UNIT")
		for _, r := range result.Runs {
			fmt.Fprintf(w, "%-4d  %-36s  %6d  %8d  %s\n", r.Seq, r.ID, r.Roots, r.Failures, r.Unit)
		}
		return nil
	}

	if opts.Code != "" {
		if len(result.Verdicts) == 0 {
			fmt.Fprintf(w, "No verdicts with code %s.\n", opts.Code)
			return nil
		}
		for _, v := range result.Verdicts {
			fmt.Fprintf(w, "%s  %s[%d]: %s\n", v.RunID, v.Method, v.Root, v.Message)
		}
		return nil
	}

	r := result.Run
	fmt.Fprintf(w, "Run %s (seq %d)\n", r.ID, r.Seq)
	fmt.Fprintf(w, "  Unit:      %s\n", r.Unit)
	fmt.Fprintf(w, "  Hash:      %s\n", r.UnitHash)
	fmt.Fprintf(w, "  Version:   %s\n", r.ToolVersion)
	fmt.Fprintf(w, "  Roots:     %d\n", r.Roots)
	fmt.Fprintf(w, "  Failures:  %d\n", r.Failures)
	fmt.Fprintln(w)

	for _, v := range result.Verdicts {
		if v.Status == string(store.StatusOK) {
			fmt.Fprintf(w, "✓ %s[%d]\n", v.Method, v.Root)
			continue
		}
		fmt.Fprintf(w, "✗ %s[%d] %s\n", v.Method, v.Root, v.Message)
	}

	if !opts.Diff {
		return nil
	}
	fmt.Fprintln(w)
	if result.Previous == nil {
		fmt.Fprintln(w, "No preceding run to compare with.")
		return nil
	}
	if result.Previous.UnitHash != r.UnitHash {
		formatter.VerboseLog("Unit changed between runs %s and %s", result.Previous.ID, r.ID)
	}
	if len(result.Changes) == 0 {
		fmt.Fprintf(w, "No changes since run %s.\n", result.Previous.ID)
		return nil
	}
	fmt.Fprintf(w, "Changes since run %s:\n", result.Previous.ID)
	for _, c := range result.Changes {
		fmt.Fprintf(w, "  %s[%d]: %s -> %s\n", c.Method, c.Root, orAbsent(c.Before), orAbsent(c.After))
	}
	return nil
}

func orAbsent(label string) string {
	if label == "" {
		return "absent"
	}
	return label
}

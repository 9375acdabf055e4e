package store

import (
	"context"
	"database/sql"
	"fmt"
)

const runColumns = `id, seq, unit, unit_hash, options, tool_version`

const verdictColumns = `run_id, seq, method, root_index, root_id, status, code, message, graph`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestRun returns the run with the highest seq.
// Returns sql.ErrNoRows if the log is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanRun(row)
}

// ReadRuns returns every run ordered by seq ASC.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadVerdicts returns all verdicts of a run in checking order:
// ORDER BY seq ASC, method COLLATE BINARY ASC, root_index ASC.
//
// Returns an empty slice (not nil) if the run has no verdicts.
func (s *Store) ReadVerdicts(ctx context.Context, runID string) ([]Verdict, error) {
	return s.queryVerdicts(ctx, `
		SELECT `+verdictColumns+`
		FROM verdicts
		WHERE run_id = ?
		ORDER BY seq ASC, method COLLATE BINARY ASC, root_index ASC
	`, runID)
}

// ReadFailures returns the failed verdicts of a run in checking order.
func (s *Store) ReadFailures(ctx context.Context, runID string) ([]Verdict, error) {
	return s.queryVerdicts(ctx, `
		SELECT `+verdictColumns+`
		FROM verdicts
		WHERE run_id = ? AND status = 'fail'
		ORDER BY seq ASC, method COLLATE BINARY ASC, root_index ASC
	`, runID)
}

// ReadVerdictsByCode returns failures with the given code across all runs,
// oldest run first.
func (s *Store) ReadVerdictsByCode(ctx context.Context, code string) ([]Verdict, error) {
	return s.queryVerdicts(ctx, `
		SELECT v.run_id, v.seq, v.method, v.root_index, v.root_id, v.status, v.code, v.message, v.graph
		FROM verdicts v
		JOIN runs r ON v.run_id = r.id
		WHERE v.code = ?
		ORDER BY r.seq ASC, v.seq ASC, v.method COLLATE BINARY ASC, v.root_index ASC
	`, code)
}

// Summarize counts the verdicts of a run.
func (s *Store) Summarize(ctx context.Context, runID string) (Summary, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Run: run}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'fail' THEN 1 ELSE 0 END), 0)
		FROM verdicts
		WHERE run_id = ?
	`, runID).Scan(&sum.Roots, &sum.Failures)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize run: %w", err)
	}
	return sum, nil
}

func (s *Store) queryVerdicts(ctx context.Context, query string, args ...any) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []Verdict{}
	for rows.Next() {
		var v Verdict
		var status string
		if err := rows.Scan(
			&v.RunID, &v.Seq, &v.Method, &v.RootIndex, &v.RootID,
			&status, &v.Code, &v.Message, &v.Graph,
		); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Status = Status(status)
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return verdicts, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a run. sql.ErrNoRows is returned unwrapped.
func scanRun(row rowScanner) (Run, error) {
	var run Run
	var optionsJSON string
	err := row.Scan(&run.ID, &run.Seq, &run.Unit, &run.UnitHash, &optionsJSON, &run.ToolVersion)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Options, err = unmarshalOptions(optionsJSON)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

package store

import (
	"context"
	"fmt"
)

// NextRunSeq returns the seq the next run should take.
func (s *Store) NextRunSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM runs
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next run seq: %w", err)
	}
	return seq, nil
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// A different run reusing an existing seq is still an error.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	optionsJSON, err := marshalOptions(run.Options)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, unit, unit_hash, options, tool_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Unit,
		run.UnitHash,
		optionsJSON,
		run.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteVerdict records the verdict for one root and reports whether a new
// row was inserted. A second verdict for the same (run, method, root) is
// ignored; the first one wins.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteVerdict(ctx context.Context, v Verdict) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO verdicts
		(run_id, seq, method, root_index, root_id, status, code, message, graph)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, method, root_index) DO NOTHING
	`,
		v.RunID,
		v.Seq,
		v.Method,
		v.RootIndex,
		v.RootID,
		string(v.Status),
		v.Code,
		v.Message,
		v.Graph,
	)
	if err != nil {
		return false, fmt.Errorf("write verdict: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write verdict: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// WriteVerdicts records a batch of verdicts in one transaction. Either all
// new rows are written or none are.
func (s *Store) WriteVerdicts(ctx context.Context, verdicts []Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write verdicts: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts
		(run_id, seq, method, root_index, root_id, status, code, message, graph)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, method, root_index) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write verdicts: prepare: %w", err)
	}
	defer stmt.Close()

	for _, v := range verdicts {
		if _, err := stmt.ExecContext(ctx,
			v.RunID, v.Seq, v.Method, v.RootIndex, v.RootID,
			string(v.Status), v.Code, v.Message, v.Graph,
		); err != nil {
			return fmt.Errorf("write verdicts: %s[%d]: %w", v.Method, v.RootIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write verdicts: commit: %w", err)
	}
	return nil
}

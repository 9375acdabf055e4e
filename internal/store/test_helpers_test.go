package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// writeTestRun writes a run with minimal required fields.
func writeTestRun(t *testing.T, s *Store, id string, seq int64) Run {
	t.Helper()
	run := Run{
		ID:          id,
		Seq:         seq,
		Unit:        "testdata/unit.cue",
		UnitHash:    "unit-hash",
		ToolVersion: "test",
	}
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// okVerdict builds a passing verdict.
func okVerdict(runID, method string, root int, seq int64) Verdict {
	return Verdict{
		RunID:     runID,
		Seq:       seq,
		Method:    method,
		RootIndex: root,
		RootID:    "root-" + method,
		Status:    StatusOK,
	}
}

// failVerdict builds a failing verdict with the given code.
func failVerdict(runID, method string, root int, seq int64, code string) Verdict {
	v := okVerdict(runID, method, root, seq)
	v.Status = StatusFail
	v.Code = code
	v.Message = code + " message"
	v.Graph = "digraph G{}"
	return v
}

package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ilverify/internal/ir"
)

// VerdictSnapshot captures the verdicts of a scenario for golden comparison.
// Messages and graphs are left out; graphs have their own golden files.
type VerdictSnapshot struct {
	ScenarioName string
	Verdicts     []VerdictLine
}

// Encode converts the snapshot to the IR value model for canonical JSON.
func (s *VerdictSnapshot) Encode() ir.IRObject {
	verdicts := make(ir.IRArray, len(s.Verdicts))
	for i, v := range s.Verdicts {
		obj := ir.IRObject{
			"method": ir.IRString(v.Method),
			"root":   ir.IRInt(v.Root),
			"status": ir.IRString(v.Status),
		}
		if v.Code != "" {
			obj["code"] = ir.IRString(v.Code)
		}
		verdicts[i] = obj
	}
	return ir.IRObject{
		"scenario": ir.IRString(s.ScenarioName),
		"verdicts": verdicts,
	}
}

// Snapshot returns the bytes stored in a scenario's golden file: the
// canonical JSON of its verdict snapshot.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := VerdictSnapshot{ScenarioName: scenarioName, Verdicts: result.Verdicts}
	return ir.MarshalCanonical(snapshot.Encode())
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// RunWithGolden executes a scenario and compares its verdicts against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the verdicts don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the verdicts of a result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	newGoldie(t).Assert(t, scenarioName, data)
	return nil
}

// AssertGraphGolden compares the diagnostic graph of method[root] against
// testdata/golden/{name}.golden. The root must have failed.
func AssertGraphGolden(t *testing.T, name string, result *Result, method string, root int) {
	t.Helper()

	v, ok := result.verdict(method, root)
	if !ok || v.Graph == "" {
		t.Fatalf("no graph recorded for %s[%d]", method, root)
	}
	newGoldie(t).Assert(t, name, []byte(v.Graph))
}

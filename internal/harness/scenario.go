package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a verification scenario: a unit and the verdicts its
// roots are expected to get.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Unit is the path of the CUE unit to verify, relative to the
	// scenario file once loaded.
	Unit string `yaml:"unit"`

	// CompileError, when set, expects the unit to fail compilation with a
	// message containing this text. Expect and Assertions must then be empty.
	CompileError string `yaml:"compile_error,omitempty"`

	// Options configures the verification run.
	Options RunOptions `yaml:"options,omitempty"`

	// Expect lists per-root expectations.
	Expect []Expectation `yaml:"expect"`

	// Assertions validate the run as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RunOptions mirrors the verification options a scenario may set.
type RunOptions struct {
	FailFast bool `yaml:"fail_fast"`
	Memoize  bool `yaml:"memoize"`
}

// Expectation is the expected verdict of one root. Exactly one of OK and
// Code is set.
type Expectation struct {
	Method string `yaml:"method"`
	Root   int    `yaml:"root"`
	OK     bool   `yaml:"ok,omitempty"`
	Code   string `yaml:"code,omitempty"`
}

// Assertion validates the verdicts of a run as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "failure_count": Check the number of failing roots
	// - "code_count": Check the number of failures with a code
	// - "method_clean": Check every root of a method passes
	// - "graph_contains": Check the graph of a failing root contains text
	Type string `yaml:"type"`

	// Method names the method (used by method_clean, graph_contains).
	Method string `yaml:"method,omitempty"`

	// Root is the root index (used by graph_contains).
	Root int `yaml:"root,omitempty"`

	// Code is the error code (used by code_count).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number (used by failure_count, code_count).
	Count int `yaml:"count,omitempty"`

	// Text must appear in the graph (used by graph_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertFailureCount  = "failure_count"
	AssertCodeCount     = "code_count"
	AssertMethodClean   = "method_clean"
	AssertGraphContains = "graph_contains"
)

// LoadScenario reads and parses a scenario YAML file, resolving the unit
// path relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the unit path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the unit path BEFORE validation
	if scenario.Unit != "" && !filepath.IsAbs(scenario.Unit) && basePath != "" {
		scenario.Unit = filepath.Join(basePath, scenario.Unit)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if _, err := os.Stat(s.Unit); os.IsNotExist(err) {
		return fmt.Errorf("unit file not found: %s", s.Unit)
	}

	if s.CompileError != "" {
		if len(s.Expect) > 0 || len(s.Assertions) > 0 {
			return fmt.Errorf("compile_error excludes expect and assertions")
		}
		return nil
	}

	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}
	seen := make(map[string]int)
	for i, e := range s.Expect {
		if e.Method == "" {
			return fmt.Errorf("expect[%d]: method is required", i)
		}
		if e.Root < 0 {
			return fmt.Errorf("expect[%d]: root must be non-negative", i)
		}
		if e.OK == (e.Code != "") {
			return fmt.Errorf("expect[%d]: exactly one of ok and code is required", i)
		}
		key := fmt.Sprintf("%s[%d]", e.Method, e.Root)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("expect[%d]: %s already expected at expect[%d]", i, key, prev)
		}
		seen[key] = i
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFailureCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for failure_count", index)
		}
	case AssertCodeCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for code_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for code_count", index)
		}
	case AssertMethodClean:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for method_clean", index)
		}
	case AssertGraphContains:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for graph_contains", index)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for graph_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a verification scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Dialects lists declaration files to register, in order. Paths are
	// relative to the scenario file.
	Dialects []string `yaml:"dialects,omitempty"`

	// Source is an inline text declaration registered after Dialects.
	Source string `yaml:"source,omitempty"`

	// Cases are verified in order.
	Cases []Case `yaml:"cases"`

	// Assertions are evaluated against the finished run.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID fixes the stored run ID. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`
}

// Case is one operation to verify.
type Case struct {
	Name   string `yaml:"name"`
	OpStep `yaml:",inline"`

	// Expect is the expected outcome. Nil means the op must verify.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// OpStep describes an operation to construct.
type OpStep struct {
	// Op is the full op name, e.g. "toy.add".
	Op string `yaml:"op"`

	// ID lets later ops in the same or a nested block reference this op's
	// results as %id or %id#N.
	ID string `yaml:"id,omitempty"`

	// Operands are type texts or value references. A type text creates a
	// free value, which an isolated-from-above op treats as defined
	// outside its body.
	Operands []string `yaml:"operands,omitempty"`

	// Results are result type texts.
	Results []string `yaml:"results,omitempty"`

	// Attrs is an attribute dictionary in textual form, e.g. {tag = "x"}.
	Attrs string `yaml:"attrs,omitempty"`

	Regions []RegionStep `yaml:"regions,omitempty"`

	// Successors is the number of empty successor blocks to attach.
	Successors int `yaml:"successors,omitempty"`
}

// RegionStep describes a region as a list of blocks.
type RegionStep struct {
	Blocks []BlockStep `yaml:"blocks"`
}

// BlockStep describes a block: argument types and nested ops.
type BlockStep struct {
	Args []string `yaml:"args,omitempty"`
	Ops  []OpStep `yaml:"ops,omitempty"`
}

// ExpectClause specifies the expected outcome of a case.
type ExpectClause struct {
	// Code is OK or the code of the expected failure: a diagnostic code
	// such as OPERAND_TYPE, ARITY or CONSTRAINT_VIOLATION for instance
	// construction, or PARSE_ERROR for malformed type and attribute text.
	Code string `yaml:"code"`

	// Message must be a substring of the failure message if set.
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the finished run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "verified_count": exactly Count cases verified
	// - "failure_count": exactly Count cases failed, with Code if set
	// - "schema_rejected": Op was rejected at registration with Code
	// - "stored_run": the stored run reads back with Count failures
	Type string `yaml:"type"`

	// Op is the full op name (used by schema_rejected).
	Op string `yaml:"op,omitempty"`

	// Code filters failure_count and is required by schema_rejected.
	Code string `yaml:"code,omitempty"`

	// Count is the expected number (used by verified_count,
	// failure_count and stored_run).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertVerifiedCount  = "verified_count"
	AssertFailureCount   = "failure_count"
	AssertSchemaRejected = "schema_rejected"
	AssertStoredRun      = "stored_run"
)

// LoadScenario reads and parses a scenario YAML file. Dialect paths are
// resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative dialect paths
// against baseDir. Unknown fields are rejected.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Dialects {
		if !filepath.IsAbs(p) && baseDir != "" {
			scenario.Dialects[i] = filepath.Join(baseDir, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Dialects) == 0 && strings.TrimSpace(s.Source) == "" {
		return fmt.Errorf("dialects or source is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for _, p := range s.Dialects {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("dialect file not found: %s", p)
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
		if err := validateStep(fmt.Sprintf("cases[%d]", i), c.OpStep); err != nil {
			return err
		}
		if c.Expect != nil && c.Expect.Code == "" {
			return fmt.Errorf("cases[%d].expect: code is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(path string, step OpStep) error {
	if step.Op == "" {
		return fmt.Errorf("%s: op is required", path)
	}
	if step.Successors < 0 {
		return fmt.Errorf("%s: successors must be non-negative", path)
	}
	for r, region := range step.Regions {
		for b, block := range region.Blocks {
			for o, nested := range block.Ops {
				if err := validateStep(fmt.Sprintf("%s.regions[%d].blocks[%d].ops[%d]", path, r, b, o), nested); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertVerifiedCount, AssertFailureCount, AssertStoredRun:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSchemaRejected:
		if a.Op == "" || a.Code == "" {
			return fmt.Errorf("assertions[%d]: op and code are required for schema_rejected", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

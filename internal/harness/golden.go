package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dynir/internal/ir"
)

// TraceSnapshot is the golden form of a run. Hashes, messages and run IDs
// are left out so snapshots survive message rewording.
type TraceSnapshot struct {
	ScenarioName string
	Dialects     []DialectSummary
	Trace        []TraceEvent
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which
// only accepts IR values and plain JSON shapes.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	dialects := make([]any, len(s.Dialects))
	for i, d := range s.Dialects {
		entry := map[string]any{
			"name": d.Name,
			"ops":  d.Ops,
		}
		if len(d.Rejected) > 0 {
			rejected := make([]any, len(d.Rejected))
			for j, r := range d.Rejected {
				rejected[j] = r
			}
			entry["rejected"] = rejected
		}
		dialects[i] = entry
	}

	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = map[string]any{
			"case": e.Case,
			"op":   e.Op,
			"code": e.Code,
			"seq":  e.Seq,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"dialects":      dialects,
		"trace":         trace,
	}
}

// Snapshot renders result as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Dialects:     result.Dialects,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
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

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/adaptivity/internal/ir"
)

// ResultSnapshot captures the outcome of a scenario execution for golden
// comparison.
type ResultSnapshot struct {
	ScenarioName string     `json:"scenario_name"`
	Correct      bool       `json:"correct"`
	Score        float64    `json:"score"`
	OutOf        float64    `json:"out_of"`
	Results      []ir.Event `json:"results"`
	Debug        ir.Debug   `json:"debug"`
	ErrorCode    string     `json:"error_code,omitempty"`
}

func newSnapshot(name string, result *Result) ResultSnapshot {
	snapshot := ResultSnapshot{
		ScenarioName: name,
		Results:      []ir.Event{},
		Debug:        ir.Debug{Sent: []string{}, All: []string{}},
		ErrorCode:    result.ErrorCode,
	}
	if c := result.Check; c != nil {
		snapshot.Correct = c.Correct
		snapshot.Score = c.Score
		snapshot.OutOf = c.OutOf
		snapshot.Results = c.Results
		snapshot.Debug = c.Debug
	}
	return snapshot
}

// marshal renders the snapshot as indented JSON without HTML escaping,
// so feedback markup stays readable in golden files.
func (s ResultSnapshot) marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Snapshot renders the golden form of a scenario result.
func Snapshot(name string, result *Result) ([]byte, error) {
	return newSnapshot(name, result).marshal()
}

// RunWithGolden executes a scenario and compares its result against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the result doesn't match the golden file.
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

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
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

package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/adaptivity/internal/compiler"
	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/ir"
)

// Scenario defines a conformance test scenario.
// A scenario runs one check against a state snapshot and asserts on the
// result and on the record the check leaves in the store.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// State is the flat learner state snapshot.
	State map[string]any `yaml:"state,omitempty"`

	// Rules are authored rules, written inline.
	Rules []any `yaml:"rules,omitempty"`

	// RulesFile points at a JSON, YAML or CUE rules document instead.
	// Relative paths resolve against the scenario file's directory.
	RulesFile string `yaml:"rules_file,omitempty"`

	// Scoring is the scoring context, with the same keys as the check API.
	Scoring map[string]any `yaml:"scoring,omitempty"`

	// Repeat runs the check this many times; every run must produce the
	// same result. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// CheckID is the fixed id given to the recorded check.
	// If empty, defaults to "test-check-default".
	CheckID string `yaml:"check_id,omitempty"`

	// Expect describes the check result.
	Expect Expect `yaml:"expect"`

	// Assertions validate events, actions and the stored record.
	// Supported types: event_sent, event_fired, event_order, event_count,
	// action, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is the directory of the scenario file, used to resolve RulesFile.
	dir string
}

// Expect specifies the expected check outcome. Unset fields are not checked.
type Expect struct {
	Correct *bool    `yaml:"correct,omitempty"`
	Score   *float64 `yaml:"score,omitempty"`
	OutOf   *float64 `yaml:"out_of,omitempty"`

	// Events are the types of the events in the result, in order.
	Events []string `yaml:"events,omitempty"`

	// Error is the engine error code the check must fail with,
	// e.g. UNKNOWN_OPERATOR.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the fired events or the stored record.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_sent": event appears in the result
	// - "event_fired": event fired, whether or not it survived resolution
	// - "event_order": events fired in this order
	// - "event_count": event fired exactly N times
	// - "action": a sent event carries an action of this type and params
	// - "final_state": query the checks table and verify expected values
	Type string `yaml:"type"`

	// Event is the event type (event_sent, event_fired, event_count, action).
	Event string `yaml:"event,omitempty"`

	// Events is the expected event order (event_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (event_count).
	Count int `yaml:"count,omitempty"`

	// Action is the action type (action).
	Action string `yaml:"action,omitempty"`

	// Params are the expected action params (action).
	// Subset match - only specified fields are validated.
	Params map[string]any `yaml:"params,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Columns contains expected column values (final_state).
	Columns map[string]any `yaml:"columns,omitempty"`
}

// Assertion type constants.
const (
	AssertEventSent  = "event_sent"
	AssertEventFired = "event_fired"
	AssertEventOrder = "event_order"
	AssertEventCount = "event_count"
	AssertAction     = "action"
	AssertFinalState = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = filepath.Dir(path)

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

	switch {
	case s.Rules == nil && s.RulesFile == "":
		return fmt.Errorf("rules or rules_file is required")
	case s.Rules != nil && s.RulesFile != "":
		return fmt.Errorf("rules and rules_file are mutually exclusive")
	}
	if s.RulesFile != "" {
		if _, err := os.Stat(s.rulesPath()); os.IsNotExist(err) {
			return fmt.Errorf("rules file not found: %s", s.rulesPath())
		}
	}

	if s.Repeat < 0 {
		return fmt.Errorf("repeat must be non-negative")
	}
	if s.Expect.Correct == nil && s.Expect.Error == "" {
		return fmt.Errorf("expect.correct or expect.error is required")
	}
	if s.Expect.Error != "" && (s.Expect.Correct != nil || s.Expect.Score != nil || len(s.Expect.Events) > 0) {
		return fmt.Errorf("expect.error cannot be combined with result expectations")
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
	case AssertEventSent, AssertEventFired:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for %s", index, a.Type)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertAction:
		if a.Event == "" || a.Action == "" {
			return fmt.Errorf("assertions[%d]: event and action are required for action", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func (s *Scenario) rulesPath() string {
	if filepath.IsAbs(s.RulesFile) || s.dir == "" {
		return s.RulesFile
	}
	return filepath.Join(s.dir, s.RulesFile)
}

// Request converts the scenario inputs into an engine request. Inline rules
// go through the same schema check as a rules file.
func (s *Scenario) Request() (engine.Request, error) {
	var req engine.Request

	req.State = ir.Object{}
	if s.State != nil {
		if err := viaJSON(s.State, &req.State); err != nil {
			return req, fmt.Errorf("state: %w", err)
		}
	}
	if s.Scoring != nil {
		if err := viaJSON(s.Scoring, &req.Scoring); err != nil {
			return req, fmt.Errorf("scoring: %w", err)
		}
	}

	if s.RulesFile != "" {
		rules, err := compiler.LoadRules(s.rulesPath())
		if err != nil {
			return req, err
		}
		req.Rules = rules
		return req, nil
	}

	doc, err := json.Marshal(map[string]any{"rules": s.Rules})
	if err != nil {
		return req, fmt.Errorf("rules: %w", err)
	}
	rules, err := compiler.ParseRules(doc, compiler.FormatJSON, s.Name)
	if err != nil {
		return req, fmt.Errorf("rules: %w", err)
	}
	req.Rules = rules
	return req, nil
}

// viaJSON converts a YAML-decoded value into out through its JSON form.
func viaJSON(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

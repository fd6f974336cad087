package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

// marshalState stores state as sorted-key JSON. Strings are kept exactly as
// given, so a replay sees the same input the check saw.
func marshalState(state ir.Object) string {
	if state == nil {
		state = ir.Object{}
	}
	return ir.StringifyString(state)
}

func unmarshalState(text string) (ir.Object, error) {
	var state ir.Object
	if err := json.Unmarshal([]byte(text), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// marshalJSON encodes typed records with HTML escaping disabled and without
// the encoder's trailing newline.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func marshalRules(rules []ir.Rule) (string, error) {
	if rules == nil {
		rules = []ir.Rule{}
	}
	text, err := marshalJSON(rules)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return text, nil
}

func unmarshalRules(text string) ([]ir.Rule, error) {
	var rules []ir.Rule
	if err := json.Unmarshal([]byte(text), &rules); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return rules, nil
}

func marshalScoring(sc ir.ScoringContext) (string, error) {
	text, err := marshalJSON(sc)
	if err != nil {
		return "", fmt.Errorf("marshal scoring: %w", err)
	}
	return text, nil
}

func unmarshalScoring(text string) (ir.ScoringContext, error) {
	var sc ir.ScoringContext
	if err := json.Unmarshal([]byte(text), &sc); err != nil {
		return sc, fmt.Errorf("unmarshal scoring: %w", err)
	}
	return sc, nil
}

func marshalResult(result ir.Result) (string, error) {
	text, err := marshalJSON(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return text, nil
}

func unmarshalResult(text string) (ir.Result, error) {
	var result ir.Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return result, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}

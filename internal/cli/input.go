package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/adaptivity/internal/compiler"
	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/store"
)

// readDocument decodes a JSON or YAML file into plain Go values.
func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return doc, nil
}

// readState loads the learner state. An empty path is an empty state.
func readState(path string) (ir.Object, error) {
	if path == "" {
		return ir.Object{}, nil
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return ir.Object{}, nil
	}
	v, err := ir.FromAny(doc)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", path, err)
	}
	state, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("state %s: must be an object", path)
	}
	return state, nil
}

// readScoring loads the scoring context. An empty path scores nothing.
func readScoring(path string) (ir.ScoringContext, error) {
	var sc ir.ScoringContext
	if path == "" {
		return sc, nil
	}
	doc, err := readDocument(path)
	if err != nil {
		return sc, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return sc, fmt.Errorf("scoring %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("scoring %s: %w", path, err)
	}
	return sc, nil
}

// loadRequest reads the three inputs of a check.
func loadRequest(statePath, rulesPath, scoringPath string) (engine.Request, error) {
	state, err := readState(statePath)
	if err != nil {
		return engine.Request{}, err
	}
	rules, err := compiler.LoadRules(rulesPath)
	if err != nil {
		return engine.Request{}, err
	}
	sc, err := readScoring(scoringPath)
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{State: state, Rules: rules, Scoring: sc}, nil
}

// openStore opens an existing check database. Unlike store.Open it refuses
// to create a new file, so a mistyped path is reported instead of replayed
// as an empty history.
func openStore(ctx context.Context, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

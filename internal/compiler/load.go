package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/adaptivity/internal/ir"
)

// Format is the encoding of a rules document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported rules file %q: want .json, .yaml, .yml or .cue", path)
}

// LoadRules reads a rules document from disk.
func LoadRules(path string) ([]ir.Rule, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	rules, err := ParseRules(data, format, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes a rules document. name labels CUE source positions.
// The document is schema checked before decoding.
func ParseRules(data []byte, format Format, name string) ([]ir.Rule, error) {
	doc, err := toJSONDocument(data, format, name)
	if err != nil {
		return nil, err
	}
	if err := SchemaCheck(doc); err != nil {
		return nil, err
	}

	var wrapped struct {
		Rules []ir.Rule `json:"rules"`
	}
	if err := json.Unmarshal(doc, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if wrapped.Rules == nil {
		wrapped.Rules = []ir.Rule{}
	}
	return wrapped.Rules, nil
}

// toJSONDocument converts any supported format into JSON of the form
// {"rules": [...]}.
func toJSONDocument(data []byte, format Format, name string) ([]byte, error) {
	var doc []byte
	switch format {
	case FormatJSON:
		doc = bytes.TrimSpace(data)
		if !json.Valid(doc) {
			var probe any
			err := json.Unmarshal(doc, &probe)
			return nil, &LoadError{Field: "json", Message: err.Error()}
		}

	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, &LoadError{Field: "yaml", Message: err.Error()}
		}
		var err error
		if doc, err = json.Marshal(v); err != nil {
			return nil, &LoadError{Field: "yaml", Message: err.Error()}
		}

	case FormatCUE:
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(name))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		var err error
		if doc, err = v.MarshalJSON(); err != nil {
			return nil, formatCUEError(err)
		}

	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return wrapRules(doc)
}

// wrapRules accepts a bare list or an object with a rules field.
func wrapRules(doc []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(doc)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		return []byte(`{"rules":` + string(trimmed) + `}`), nil
	case bytes.HasPrefix(trimmed, []byte("{")):
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, &LoadError{Field: "document", Message: err.Error()}
		}
		rules, ok := fields["rules"]
		if !ok {
			return nil, &LoadError{Field: "rules", Message: "document has no rules list"}
		}
		return []byte(`{"rules":` + string(rules) + `}`), nil
	}
	return nil, &LoadError{Field: "document", Message: "expected a list of rules or an object with rules"}
}

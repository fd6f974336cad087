package scoring

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

// Marshal encodes a result as JSON without HTML escaping, so the text
// matches what a browser's JSON.stringify would produce for it.
func Marshal(result *ir.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode returns the base64 form of the result's JSON, for transport
// across a document boundary.
func Encode(result *ir.Result) (string, error) {
	data, err := Marshal(result)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode reverses Encode.
func Decode(encoded string) (*ir.Result, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	var result ir.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

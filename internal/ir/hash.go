package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCheckInput = "adaptivity/check-input/v1"
	DomainResult     = "adaptivity/result/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckInputHash identifies the inputs of one check call. Two calls with the
// same hash must produce the same result.
func CheckInputHash(state Object, rules []Rule, scoring ScoringContext) (string, error) {
	rulesValue, err := toValue(rules)
	if err != nil {
		return "", fmt.Errorf("CheckInputHash: rules: %w", err)
	}
	scoringValue, err := toValue(scoring)
	if err != nil {
		return "", fmt.Errorf("CheckInputHash: scoring: %w", err)
	}

	canonical, err := MarshalCanonical(Object{
		"state":   state,
		"rules":   rulesValue,
		"scoring": scoringValue,
	})
	if err != nil {
		return "", fmt.Errorf("CheckInputHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCheckInput, canonical), nil
}

// ResultHash fingerprints a result so replays can be compared byte for byte.
func ResultHash(result *Result) (string, error) {
	v, err := toValue(result)
	if err != nil {
		return "", fmt.Errorf("ResultHash: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// toValue round-trips a typed structure through its JSON encoding.
func toValue(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return UnmarshalValue(data)
}

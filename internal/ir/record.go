package ir

// CheckRecord is the durable record of one check call: its inputs, the
// result it produced and the fingerprints that let a replay prove the same
// inputs still give the same result.
type CheckRecord struct {
	ID            string         `json:"id"`
	Seq           int64          `json:"seq"`
	InputHash     string         `json:"input_hash"`
	State         Object         `json:"state"`
	Rules         []Rule         `json:"rules"`
	Scoring       ScoringContext `json:"scoring"`
	Result        Result         `json:"result"`
	ResultHash    string         `json:"result_hash"`
	EngineVersion string         `json:"engine_version"`
}

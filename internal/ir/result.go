package ir

// ScoringContext configures score computation for one check.
type ScoringContext struct {
	MaxScore             float64 `json:"maxScore"`
	MaxAttempt           float64 `json:"maxAttempt"`
	CurrentAttemptNumber float64 `json:"currentAttemptNumber"`
	NegativeScoreAllowed bool    `json:"negativeScoreAllowed"`
	TrapStateScoreScheme bool    `json:"trapStateScoreScheme"`
}

// Result is the outcome of one check.
type Result struct {
	Correct bool    `json:"correct"`
	Score   float64 `json:"score"`
	OutOf   float64 `json:"out_of"`
	Results []Event `json:"results"`
	Debug   Debug   `json:"debug"`
}

// Debug lists event types: Sent are the events in Results, All every event
// that fired before resolution.
type Debug struct {
	Sent []string `json:"sent"`
	All  []string `json:"all"`
}

// EventTypes returns the type of each event, in order.
func EventTypes(events []Event) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

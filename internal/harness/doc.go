// Package harness runs conformance scenarios against the check engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	state:
//	  stage.answer.value: 42
//	rules_file: ../rules/q1.json   # or rules: [...] inline
//	scoring:
//	  maxScore: 10
//	  maxAttempt: 5
//	  currentAttemptNumber: 1
//	repeat: 3
//	expect:
//	  correct: true
//	  score: 10
//	  events: [q1.correct]
//	assertions:
//	  - type: event_fired
//	    event: q1.defaultWrong
//	  - type: action
//	    event: q1.correct
//	    action: navigation
//	    params: { target: next }
//	  - type: final_state
//	    table: checks
//	    where: { id: test-check-default }
//	    columns: { correct: true, score: 10 }
//
// # Assertion Types
//
//   - event_sent: the event is in the check result
//   - event_fired: the event fired, whether or not it survived resolution
//   - event_order: events fired in the specified order
//   - event_count: the event fired exactly N times
//   - action: a sent event carries a matching action
//   - final_state: queries the checks table and verifies column values
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a
// deterministic clock (testutil.DeterministicClock) and a fixed check id,
// so golden files compare byte for byte. After the assertions the harness
// replays every recorded check and fails the scenario on any divergence.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/answer_correct.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness

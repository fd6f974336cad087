package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

// MustRule decodes a rule from its authored JSON form. It panics on
// malformed input, so use it only for fixtures.
func MustRule(doc string) ir.Rule {
	var r ir.Rule
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		panic(fmt.Sprintf("testutil: bad rule fixture: %v", err))
	}
	return r
}

// MustState decodes a state map from JSON. It panics on malformed input.
func MustState(doc string) ir.Object {
	var state ir.Object
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		panic(fmt.Sprintf("testutil: bad state fixture: %v", err))
	}
	return state
}

// MockState is a learner state snapshot with cross-activity references,
// session bookkeeping and the variables the fixture rules read.
func MockState() ir.Object {
	return MustState(`{
		"q:1555699921528:664|session.attemptNumber": 1,
		"q:1555699921528:664|stage.Name.enabled": true,
		"q:1555699921528:664|stage.Name.text": "Humpbertdink",
		"q:1555699921528:664|stage.Name.textLength": 12,
		"q:1555699921528:664|stage.Title.selectedChoice": 4,
		"q:1555699921528:664|stage.Title.selectedChoiceText": "King",
		"q:1555699921528:664|stage.Title.selectedChoices": [4],
		"q:1555699921528:664|stage.Title.selectedChoicesText": ["King"],
		"session.attemptNumber": 1,
		"session.currentQuestionScore": 0,
		"session.questionTimeExceeded": false,
		"session.seed": "1234567",
		"session.timeOnQuestion": 77009,
		"session.userName": "",
		"variables.IBennu": 100,
		"variables.scoreFactor": 2,
		"stage.simIFrame.TestObject.distance": 101,
		"stage.simIFrame.Globals.SelectedObject": "Bennu"
	}`)
}

// DefaultCorrectRule always fires and marks the answer correct.
func DefaultCorrectRule() ir.Rule {
	return MustRule(`{
		"id": "ts:1476204198961:2067.correct",
		"name": "correct",
		"priority": 1,
		"disabled": false,
		"additionalScore": 0,
		"forceProgress": false,
		"default": true,
		"correct": true,
		"conditions": {"all": []},
		"event": {
			"type": "ts:1476204198961:2067.correct",
			"params": {"actions": [{"type": "navigation", "params": {"target": "next"}}]}
		}
	}`)
}

// DisabledCorrectRule is DefaultCorrectRule switched off.
func DisabledCorrectRule() ir.Rule {
	r := DefaultCorrectRule()
	r.Disabled = true
	return r
}

// DefaultWrongRule is an authored fallback incorrect rule.
func DefaultWrongRule() ir.Rule {
	return MustRule(`{
		"id": "123456.defaultWrong",
		"name": "defaultWrong",
		"priority": 1,
		"default": true,
		"correct": false,
		"conditions": {"all": []},
		"event": {
			"type": "123456.defaultWrong",
			"params": {"actions": [{"type": "feedback", "params": {"partsLayout": []}}]}
		}
	}`)
}

// ComplexRule is correct when the test object is within 10% of
// variables.IBennu and Bennu is selected.
func ComplexRule() ir.Rule {
	return MustRule(`{
		"id": "ts:1476204198961:2068.Correct Bennu",
		"name": "Correct Bennu",
		"default": false,
		"correct": true,
		"conditions": {
			"all": [
				{
					"fact": "stage.simIFrame.TestObject.distance",
					"operator": "equalWithTolerance",
					"value": ["{variables.IBennu}", 10.0]
				},
				{
					"fact": "stage.simIFrame.Globals.SelectedObject",
					"operator": "equal",
					"value": "Bennu"
				}
			]
		},
		"event": {
			"type": "ts:1476204198961:2068.Correct Bennu",
			"params": {
				"actions": [
					{
						"type": "mutateState",
						"params": {
							"target": "stage.simIFrame.Feedback.SendMessage3",
							"targetType": 2,
							"operator": "=",
							"value": "<color=#3686FF>CREW MEMBER: I've matched the test object speed to the small world speed. Can you confirm?</color>"
						}
					},
					{
						"type": "mutateState",
						"params": {
							"target": "stage.simIFrame.UI.SSM Flasher.TriggerFlash",
							"targetType": 4,
							"operator": "=",
							"value": true
						}
					},
					{"type": "navigation", "params": {"target": "next"}}
				]
			}
		}
	}`)
}

// TrapScoreRule is a default correct rule that sets
// session.currentQuestionScore to value.
func TrapScoreRule(value ir.Value) ir.Rule {
	r := DefaultCorrectRule()
	r.Event.Params.Actions = append(r.Event.Params.Actions, ir.Action{
		Type: ir.ActionMutateState,
		Params: ir.Object{
			"target":     ir.String("session.currentQuestionScore"),
			"targetType": ir.Number(float64(ir.TypeNumber)),
			"operator":   ir.String("="),
			"value":      value,
		},
	})
	return r
}

// AttemptScoring builds an attempt-decay scoring context.
func AttemptScoring(attempt, maxScore, maxAttempt float64, negativeAllowed bool) ir.ScoringContext {
	return ir.ScoringContext{
		MaxScore:             maxScore,
		MaxAttempt:           maxAttempt,
		CurrentAttemptNumber: attempt,
		NegativeScoreAllowed: negativeAllowed,
	}
}

// TrapScoring builds a trap-state scoring context for a first attempt.
func TrapScoring(maxScore float64) ir.ScoringContext {
	return ir.ScoringContext{
		MaxScore:             maxScore,
		MaxAttempt:           1,
		CurrentAttemptNumber: 1,
		TrapStateScoreScheme: true,
	}
}

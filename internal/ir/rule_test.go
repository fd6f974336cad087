package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRule = `{
	"id": "r.correct",
	"name": "correct",
	"priority": 1,
	"correct": true,
	"default": false,
	"additionalScore": 0.0,
	"conditions": {
		"all": [
			{"fact": "stage.simIFrame.TestObject.distance", "operator": "equalWithTolerance", "value": ["{variables.IBennu}", 10.0], "type": 3},
			{"any": []}
		]
	},
	"event": {
		"type": "r.correct",
		"params": {
			"actions": [
				{"type": "navigation", "params": {"target": "next"}},
				{"type": "mutateState", "params": {"target": "session.currentQuestionScore", "operator": "=", "value": "10", "targetType": 1}}
			],
			"custom": "kept"
		}
	}
}`

func TestRuleUnmarshal(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(sampleRule), &r))

	assert.Equal(t, "r.correct", r.ID)
	assert.True(t, r.Correct)
	assert.Equal(t, ConditionAll, r.Conditions.Kind)
	require.Len(t, r.Conditions.Children, 2)

	leaf := r.Conditions.Children[0]
	assert.Equal(t, ConditionLeaf, leaf.Kind)
	assert.Equal(t, "equalWithTolerance", leaf.Operator)
	assert.Equal(t, TypeArray, leaf.Type)
	assert.Equal(t, Array{String("{variables.IBennu}"), Number(10)}, leaf.Value)

	empty := r.Conditions.Children[1]
	assert.Equal(t, ConditionAny, empty.Kind)
	assert.NotNil(t, empty.Children)
	assert.Empty(t, empty.Children)

	require.Len(t, r.Event.Params.Actions, 2)
	assert.Equal(t, String("kept"), r.Event.Params.Extra["custom"])
}

func TestEventParamsMarshalMergesExtra(t *testing.T) {
	p := EventParams{
		Actions: []Action{{Type: ActionFeedback, Params: Object{"text": String("hi")}}},
		Order:   2,
		Correct: true,
		Extra:   Object{"custom": Number(1)},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"actions":[{"type":"feedback","params":{"text":"hi"}}],"order":2,"correct":true,"default":false,"custom":1}`, string(data))
}

func TestConditionMarshalShapes(t *testing.T) {
	tree := All(Leaf("stage.a", "equal", String("x")), Any())
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"all":[{"fact":"stage.a","operator":"equal","value":"x"},{"any":[]}]}`, string(data))

	var back Condition
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tree, back)
}

func TestStateOperation(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(sampleRule), &r))

	_, ok := r.Event.Params.Actions[0].StateOperation()
	assert.False(t, ok, "navigation is not a state operation")

	op, ok := r.Event.Params.Actions[1].StateOperation()
	require.True(t, ok)
	assert.Equal(t, "session.currentQuestionScore", op.Target)
	assert.Equal(t, "=", op.Operator)
	assert.Equal(t, String("10"), op.Value)
	assert.Equal(t, TypeNumber, op.TargetType)
}

func TestCloneRulesIsDeep(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(sampleRule), &r))
	rules := []Rule{r}

	cp := CloneRules(rules)
	cp[0].Conditions.Children[0].Value.(Array)[0] = String("changed")
	cp[0].Event.Params.Actions[0].Params["target"] = String("elsewhere")

	assert.Equal(t, String("{variables.IBennu}"), rules[0].Conditions.Children[0].Value.(Array)[0])
	assert.Equal(t, String("next"), rules[0].Event.Params.Actions[0].Params["target"])
}

package rules

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
	"github.com/roach88/adaptivity/internal/script"
	"github.com/roach88/adaptivity/internal/testutil"
)

func setupEnv(t *testing.T) (*script.Evaluator, *script.Environment) {
	t.Helper()
	ev := script.New(script.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	env := script.NewEnvironment()
	require.NoError(t, ev.AssignState(context.Background(), env, testutil.MockState()))
	return ev, env
}

func TestEnsureDefaultWrong(t *testing.T) {
	rules, added := EnsureDefaultWrong(nil)
	assert.True(t, added)
	require.Len(t, rules, 1)
	assert.Equal(t, DefaultWrongID, rules[0].ID)
	assert.True(t, rules[0].Default)
	assert.False(t, rules[0].Correct)

	authored := []ir.Rule{testutil.DefaultCorrectRule()}
	rules, added = EnsureDefaultWrong(authored)
	assert.True(t, added)
	require.Len(t, rules, 2)
	assert.Equal(t, DefaultWrongID, rules[1].ID, "fallback is appended last")
	assert.Len(t, authored, 1, "input is not modified")

	authored = []ir.Rule{testutil.DefaultCorrectRule(), testutil.DefaultWrongRule()}
	rules, added = EnsureDefaultWrong(authored)
	assert.False(t, added)
	assert.Equal(t, authored, rules)
}

func TestDefaultWrongRule(t *testing.T) {
	r := DefaultWrongRule()

	assert.Equal(t, DefaultWrongType, r.Event.Type)
	assert.Equal(t, ir.ConditionAll, r.Conditions.Kind)
	assert.Empty(t, r.Conditions.Children)
	require.Len(t, r.Event.Params.Actions, 1)
	assert.Equal(t, ir.ActionFeedback, r.Event.Params.Actions[0].Type)
	assert.Contains(t, ir.StringifyString(r.Event.Params.Actions[0].Params), DefaultWrongFeedback)

	// Each call returns an independent copy.
	r.Event.Params.Actions[0].Params["feedback"] = ir.Null{}
	assert.NotEqual(t, r.Event, DefaultWrongEvent())
}

func TestEnabled(t *testing.T) {
	rules := Enabled([]ir.Rule{
		testutil.DisabledCorrectRule(),
		testutil.DefaultWrongRule(),
	})
	require.Len(t, rules, 1)
	assert.Equal(t, "123456.defaultWrong", rules[0].ID)
}

func TestPreprocess_PriorityAndParams(t *testing.T) {
	ev, env := setupEnv(t)
	complex := testutil.ComplexRule()
	complex.Event.Params.Extra = ir.Object{"custom": ir.String("kept")}
	authored := []ir.Rule{complex, testutil.DefaultCorrectRule(), testutil.DefaultWrongRule()}

	rules, err := Preprocess(context.Background(), ev, env, authored)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	for i, r := range rules {
		assert.Equal(t, i+1, r.Priority)
		assert.Equal(t, i+1, r.Event.Params.Order)
		assert.Equal(t, r.Correct, r.Event.Params.Correct)
		assert.Equal(t, r.Default, r.Event.Params.Default)
	}
	assert.Equal(t, ir.String("kept"), rules[0].Event.Params.Extra["custom"])
	assert.Len(t, rules[0].Event.Params.Actions, 3)
}

func TestPreprocess_ConditionValues(t *testing.T) {
	ev, env := setupEnv(t)
	require.NoError(t, env.Set("stage.list", ir.Array{ir.Number(1), ir.Number(2)}))

	leaf := func(value ir.Value, typ ir.VariableType) ir.Rule {
		c := ir.Leaf("stage.simIFrame.TestObject.distance", "equal", value)
		c.Type = typ
		return ir.Rule{ID: "r", Conditions: ir.All(ir.Any(c))}
	}

	tests := []struct {
		name  string
		value ir.Value
		typ   ir.VariableType
		want  ir.Value
	}{
		{"plain string", ir.String("Bennu"), 0, ir.String("Bennu")},
		{"number", ir.Number(3), 0, ir.Number(3)},
		{"reference to number is stringified", ir.String("{variables.IBennu}"), 0, ir.String("100")},
		{"reference to string is kept verbatim", ir.String("{stage.simIFrame.Globals.SelectedObject}"), 0, ir.String("Bennu")},
		{"reference to list", ir.String("{stage.list}"), 0, ir.String("[1,2]")},
		{"expression", ir.String("{variables.IBennu} * {variables.scoreFactor}"), 0, ir.String("200")},
		{"failed expression keeps literal", ir.String("{variables.missing}"), 0, ir.String("{variables.missing}")},
		{"json literal", ir.String(`{"a":1}`), 0, ir.String(`{"a":1}`)},
		{"array elements", ir.Array{ir.String("{variables.IBennu}"), ir.Number(10), ir.String("x")}, 0,
			ir.Array{ir.Number(100), ir.Number(10), ir.String("x")}},
		{"array type wraps", ir.String("1,2"), ir.TypeArray, ir.String("[1,2]")},
		{"array type already wrapped", ir.String("[1,2]"), ir.TypeArray, ir.String("[1,2]")},
		{"array type wraps evaluated text", ir.String("{variables.IBennu},5"), ir.TypeArray, ir.String("[{variables.IBennu},5]")},
		{"array type ignores non-strings", ir.Number(4), ir.TypeArray, ir.Number(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := Preprocess(context.Background(), ev, env, []ir.Rule{leaf(tt.value, tt.typ)})
			require.NoError(t, err)
			got := rules[0].Conditions.Children[0].Children[0].Value
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreprocess_DoesNotModifyInput(t *testing.T) {
	ev, env := setupEnv(t)
	authored := []ir.Rule{testutil.ComplexRule()}

	_, err := Preprocess(context.Background(), ev, env, authored)
	require.NoError(t, err)

	assert.Equal(t, testutil.ComplexRule(), authored[0])
}

func TestPreprocess_Cancelled(t *testing.T) {
	ev, env := setupEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rule := ir.Rule{ID: "r", Conditions: ir.All(ir.Leaf("a", "equal", ir.String("{variables.missing}")))}
	_, err := Preprocess(ctx, ev, env, []ir.Rule{rule})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		tree     ir.Condition
		wantPath string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unknown operator",
			tree:     ir.All(ir.Leaf("a", "equal", ir.Number(1)), ir.Any(ir.Leaf("b", "resembles", ir.Number(1)))),
			wantPath: "conditions.all[1].any[0]",
			check: func(t *testing.T, err error) {
				var ue *operator.UnknownOperatorError
				require.ErrorAs(t, err, &ue)
				assert.Equal(t, "resembles", ue.Name)
			},
		},
		{
			name:     "missing fact",
			tree:     ir.All(ir.Leaf(" ", "equal", ir.Number(1))),
			wantPath: "conditions.all[0]",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMissingFact) },
		},
		{
			name:     "missing operator",
			tree:     ir.Any(ir.Leaf("a", "", ir.Number(1))),
			wantPath: "conditions.any[0]",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMissingOperator) },
		},
		{
			name:     "invalid kind",
			tree:     ir.Condition{Kind: ir.ConditionKind(9)},
			wantPath: "conditions",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidKind) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(ir.Rule{ID: "rule-1", Conditions: tt.tree})
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "rule-1", ce.RuleID)
			assert.Equal(t, tt.wantPath, ce.Path)
			tt.check(t, err)
		})
	}
}

func TestCompileAll_JoinsErrors(t *testing.T) {
	_, err := CompileAll([]ir.Rule{
		{ID: "a", Conditions: ir.All(ir.Leaf("x", "nope", ir.Number(1)))},
		{ID: "b", Conditions: ir.All()},
		{ID: "c", Conditions: ir.All(ir.Leaf("", "equal", ir.Number(1)))},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "a"`)
	assert.Contains(t, err.Error(), `rule "c"`)
	assert.NotContains(t, err.Error(), `rule "b"`)
}

func TestCompiled_Matches(t *testing.T) {
	facts := ir.Object{
		"stage.a":    ir.Number(5),
		"stage.b":    ir.String("Bennu"),
		"stage.c":    ir.Number(5),
		"stage.list": ir.Array{ir.Number(1), ir.Number(2)},
	}

	tests := []struct {
		name string
		tree ir.Condition
		want bool
	}{
		{"empty all", ir.All(), true},
		{"empty any", ir.Any(), false},
		{"leaf true", ir.All(ir.Leaf("stage.a", "equal", ir.Number(5))), true},
		{"leaf false", ir.All(ir.Leaf("stage.a", "equal", ir.Number(6))), false},
		{"all needs every child", ir.All(
			ir.Leaf("stage.a", "equal", ir.Number(5)),
			ir.Leaf("stage.b", "equal", ir.String("Ryugu")),
		), false},
		{"any needs one child", ir.Any(
			ir.Leaf("stage.a", "equal", ir.Number(6)),
			ir.Leaf("stage.b", "equal", ir.String("bennu")),
		), true},
		{"nested", ir.All(
			ir.Any(ir.Leaf("stage.a", "inRange", ir.Array{ir.Number(1), ir.Number(10)})),
			ir.All(ir.Leaf("stage.list", "containsExactly", ir.String("[2,1]"))),
		), true},
		{"undefined fact is false", ir.All(ir.Leaf("stage.missing", "notEqual", ir.Number(1))), false},
		{"undefined fact inside any", ir.Any(
			ir.Leaf("stage.missing", "equal", ir.Number(1)),
			ir.Leaf("stage.a", "equal", ir.Number(5)),
		), true},
		{"value fact reference", ir.All(ir.Leaf("stage.a", "equal", ir.Object{"fact": ir.String("stage.c")})), true},
		{"value fact reference missing", ir.All(ir.Leaf("stage.a", "equal", ir.Object{"fact": ir.String("stage.nope")})), false},
		{"fact name is trimmed", ir.All(ir.Leaf(" stage.a ", "equal", ir.Number(5))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compile(ir.Rule{ID: "r", Conditions: tt.tree})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Matches(facts))
		})
	}
}

func TestRun_ComplexConditions(t *testing.T) {
	ev, env := setupEnv(t)
	authored, _ := EnsureDefaultWrong([]ir.Rule{testutil.ComplexRule(), testutil.DefaultCorrectRule()})

	rules, err := Preprocess(context.Background(), ev, env, authored)
	require.NoError(t, err)
	compiled, err := CompileAll(rules)
	require.NoError(t, err)

	events, err := Run(context.Background(), compiled, env.Snapshot(), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ts:1476204198961:2068.Correct Bennu",
		"ts:1476204198961:2067.correct",
		DefaultWrongType,
	}, ir.EventTypes(events))
}

func TestRun_DoesNotFireFailingRules(t *testing.T) {
	ev, env := setupEnv(t)
	require.NoError(t, env.Set("stage.simIFrame.Globals.SelectedObject", ir.String("Ryugu")))

	rules, err := Preprocess(context.Background(), ev, env, []ir.Rule{testutil.ComplexRule()})
	require.NoError(t, err)
	compiled, err := CompileAll(rules)
	require.NoError(t, err)

	events, err := Run(context.Background(), compiled, env.Snapshot(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRun_OrderIndependentOfParallelism(t *testing.T) {
	var authored []ir.Rule
	for i := 0; i < 50; i++ {
		r := testutil.DefaultCorrectRule()
		r.ID = string(rune('A' + i%26))
		r.Event.Type = r.ID
		authored = append(authored, r)
	}
	compiled, err := CompileAll(authored)
	require.NoError(t, err)

	serial, err := Run(context.Background(), compiled, ir.Object{}, 1)
	require.NoError(t, err)
	parallel, err := Run(context.Background(), compiled, ir.Object{}, 16)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	assert.Len(t, serial, 50)
}

func TestRun_EventsAreCopies(t *testing.T) {
	compiled, err := CompileAll([]ir.Rule{testutil.DefaultCorrectRule()})
	require.NoError(t, err)

	events, err := Run(context.Background(), compiled, ir.Object{}, 1)
	require.NoError(t, err)
	events[0].Params.Actions[0].Params["target"] = ir.String("changed")

	assert.Equal(t, ir.String("next"), compiled[0].Rule.Event.Params.Actions[0].Params["target"])
}

func TestRun_Cancelled(t *testing.T) {
	compiled, err := CompileAll([]ir.Rule{testutil.DefaultCorrectRule()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, compiled, ir.Object{}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReferencedActivities(t *testing.T) {
	tree := ir.All(
		ir.Leaf("q:1555699921528:664|stage.Name.text", "equal", ir.String("x")),
		ir.Any(
			ir.Leaf("stage.local.value", "equal",
				ir.String("{q:1:2|stage.a.value} + {q:3:4|stage.b.value} + {q:1:2|stage.c.value}")),
			ir.Leaf("session.attemptNumber", "equal", ir.Number(1)),
		),
	)

	assert.Equal(t, []string{"q:1555699921528:664", "q:1:2", "q:3:4"}, ReferencedActivities(tree))
	assert.Empty(t, ReferencedActivities(ir.All()))
}

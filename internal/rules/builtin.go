package rules

import (
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/script"
)

// Identity of the synthesized fallback rule.
const (
	DefaultWrongID       = "builtin.defaultWrong"
	DefaultWrongType     = "builtin.defaultWrong"
	DefaultWrongFeedback = "Incorrect, please try again."
)

// DefaultWrongRule returns a fresh copy of the fallback rule: default,
// incorrect, no conditions (so it always fires) and a single feedback
// action.
func DefaultWrongRule() ir.Rule {
	return ir.Rule{
		ID:         DefaultWrongID,
		Name:       "defaultWrong",
		Priority:   1,
		Default:    true,
		Correct:    false,
		Conditions: ir.All(),
		Event: ir.Event{
			Type: DefaultWrongType,
			Params: ir.EventParams{
				Actions: []ir.Action{defaultWrongFeedback()},
				Default: true,
			},
		},
	}
}

// DefaultWrongEvent returns the event of the fallback rule.
func DefaultWrongEvent() ir.Event {
	return DefaultWrongRule().Event
}

func defaultWrongFeedback() ir.Action {
	text := ir.Object{
		"tag":      ir.String("text"),
		"text":     ir.String(DefaultWrongFeedback),
		"children": ir.Array{},
	}
	paragraph := ir.Object{
		"tag":   ir.String("p"),
		"style": ir.Object{"fontSize": ir.String("16")},
		"children": ir.Array{ir.Object{
			"tag":      ir.String("span"),
			"style":    ir.Object{"fontWeight": ir.String("bold")},
			"children": ir.Array{text},
		}},
	}

	return ir.Action{
		Type: ir.ActionFeedback,
		Params: ir.Object{
			"feedback": ir.Object{
				"id": ir.String("builtin.feedback"),
				"custom": ir.Object{
					"showCheckBtn":     ir.Bool(true),
					"checkButtonLabel": ir.String("Next"),
					"mainBtnLabel":     ir.String("Next"),
					"applyBtnFlag":     ir.Bool(false),
					"applyBtnLabel":    ir.String("Show Solution"),
					"width":            ir.Number(350),
					"height":           ir.Number(100),
					"rules":            ir.Array{},
					"facts":            ir.Array{},
				},
				"partsLayout": ir.Array{ir.Object{
					"id":   ir.String("builtin.feedback.textflow"),
					"type": ir.String("janus-text-flow"),
					"custom": ir.Object{
						"nodes":  ir.Array{paragraph},
						"x":      ir.Number(10),
						"y":      ir.Number(10),
						"z":      ir.Number(0),
						"width":  ir.Number(330),
						"height": ir.Number(22),
					},
				}},
			},
		},
	}
}

// IsDefaultWrong reports whether a rule is a default incorrect rule.
func IsDefaultWrong(r ir.Rule) bool {
	return r.Default && !r.Correct
}

// Enabled returns the rules that are not disabled, in authored order.
func Enabled(rules []ir.Rule) []ir.Rule {
	out := make([]ir.Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Disabled {
			out = append(out, r)
		}
	}
	return out
}

// EnsureDefaultWrong returns rules with the fallback rule appended when no
// rule is default and incorrect. added reports whether it was appended.
// Being last, the fallback gets the highest order of the set.
func EnsureDefaultWrong(rules []ir.Rule) (out []ir.Rule, added bool) {
	for _, r := range rules {
		if IsDefaultWrong(r) {
			return rules, false
		}
	}
	out = make([]ir.Rule, len(rules), len(rules)+1)
	copy(out, rules)
	return append(out, DefaultWrongRule()), true
}

// ReferencedActivities returns the sequence ids a condition tree reads
// from, in first-seen order. Facts and values refer to another activity's
// state as "<sequenceId>|stage.<part>.<property>".
func ReferencedActivities(tree ir.Condition) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(ref string) {
		id, _, ok := cutStageRef(ref)
		if ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	tree.Walk(func(leaf *ir.Condition) {
		add(leaf.Fact)
		if s, ok := leaf.Value.(ir.String); ok {
			for _, expr := range script.ExtractExpressions(string(s)) {
				add(expr)
			}
		}
	})
	return out
}

const stageRefSep = "|stage."

func cutStageRef(ref string) (sequenceID, rest string, ok bool) {
	return strings.Cut(ref, stageRefSep)
}

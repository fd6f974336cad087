package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Rule is one authored conditional rule.
//
// Priority is overwritten during preprocessing with 1 + the rule's position in
// the authored list. Default marks a fallback rule; Correct marks a rule whose
// firing means the learner answered correctly.
type Rule struct {
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"name,omitempty"`
	Priority        int       `json:"priority,omitempty"`
	Disabled        bool      `json:"disabled,omitempty"`
	Default         bool      `json:"default"`
	Correct         bool      `json:"correct"`
	AdditionalScore float64   `json:"additionalScore,omitempty"`
	ForceProgress   bool      `json:"forceProgress,omitempty"`
	Conditions      Condition `json:"conditions"`
	Event           Event     `json:"event"`
}

// ConditionKind distinguishes the three shapes of a condition node.
type ConditionKind int

const (
	// ConditionLeaf compares one fact against a value.
	ConditionLeaf ConditionKind = iota
	// ConditionAll is true iff every child is true (empty: true).
	ConditionAll
	// ConditionAny is true iff at least one child is true (empty: false).
	ConditionAny
)

// String returns the JSON key for the kind.
func (k ConditionKind) String() string {
	switch k {
	case ConditionAll:
		return "all"
	case ConditionAny:
		return "any"
	default:
		return "leaf"
	}
}

// Condition is a node of a rule's condition tree: either a combinator
// ({"all": [...]} / {"any": [...]}) or a leaf comparison.
type Condition struct {
	Kind     ConditionKind
	Children []Condition

	ID       string
	Fact     string
	Operator string
	Value    Value // nil when the author omitted it
	Type     VariableType
}

// All builds an "all" combinator.
func All(children ...Condition) Condition {
	if children == nil {
		children = []Condition{}
	}
	return Condition{Kind: ConditionAll, Children: children}
}

// Any builds an "any" combinator.
func Any(children ...Condition) Condition {
	if children == nil {
		children = []Condition{}
	}
	return Condition{Kind: ConditionAny, Children: children}
}

// Leaf builds a leaf comparison.
func Leaf(fact, operator string, value Value) Condition {
	return Condition{Kind: ConditionLeaf, Fact: fact, Operator: operator, Value: value}
}

type leafJSON struct {
	ID       string          `json:"id,omitempty"`
	Fact     string          `json:"fact"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value,omitempty"`
	Type     VariableType    `json:"type,omitempty"`
}

// MarshalJSON implements json.Marshaler for Condition.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ConditionAll, ConditionAny:
		children := c.Children
		if children == nil {
			children = []Condition{}
		}
		return json.Marshal(map[string][]Condition{c.Kind.String(): children})
	default:
		leaf := leafJSON{ID: c.ID, Fact: c.Fact, Operator: c.Operator, Type: c.Type}
		if c.Value != nil {
			leaf.Value = Stringify(c.Value)
		}
		return json.Marshal(leaf)
	}
}

// UnmarshalJSON implements json.Unmarshaler for Condition.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition: %w", err)
	}

	for _, kind := range []ConditionKind{ConditionAll, ConditionAny} {
		children, ok := raw[kind.String()]
		if !ok {
			continue
		}
		var nodes []Condition
		if err := json.Unmarshal(children, &nodes); err != nil {
			return fmt.Errorf("condition %s: %w", kind, err)
		}
		if nodes == nil {
			nodes = []Condition{}
		}
		*c = Condition{Kind: kind, Children: nodes}
		return nil
	}

	var leaf leafJSON
	if err := json.Unmarshal(data, &leaf); err != nil {
		return fmt.Errorf("condition leaf: %w", err)
	}
	*c = Condition{
		Kind:     ConditionLeaf,
		ID:       leaf.ID,
		Fact:     leaf.Fact,
		Operator: leaf.Operator,
		Type:     leaf.Type,
	}
	if len(leaf.Value) > 0 {
		v, err := UnmarshalValue(leaf.Value)
		if err != nil {
			return fmt.Errorf("condition %q value: %w", leaf.Fact, err)
		}
		c.Value = v
	}
	return nil
}

// Clone returns a deep copy of the condition tree.
func (c Condition) Clone() Condition {
	out := c
	out.Value = Clone(c.Value)
	if c.Children != nil {
		out.Children = make([]Condition, len(c.Children))
		for i, child := range c.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// Walk calls fn for every leaf in the tree, depth first, in authored order.
func (c *Condition) Walk(fn func(leaf *Condition)) {
	if c.Kind == ConditionLeaf {
		fn(c)
		return
	}
	for i := range c.Children {
		c.Children[i].Walk(fn)
	}
}

// Event is emitted when a rule fires.
type Event struct {
	Type   string      `json:"type"`
	Params EventParams `json:"params"`
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.Params = e.Params.Clone()
	return out
}

// EventParams carries the actions of a fired rule plus the bookkeeping the
// preprocessor merges in. Params the author set that have no field here
// round-trip through Extra.
type EventParams struct {
	Actions []Action
	Order   int
	Correct bool
	Default bool
	Extra   Object
}

// Clone returns a deep copy of the params.
func (p EventParams) Clone() EventParams {
	out := p
	if p.Actions != nil {
		out.Actions = make([]Action, len(p.Actions))
		for i, a := range p.Actions {
			out.Actions[i] = a.Clone()
		}
	}
	if p.Extra != nil {
		out.Extra = Clone(p.Extra).(Object)
	}
	return out
}

// MarshalJSON implements json.Marshaler for EventParams, merging Extra with
// the typed fields.
func (p EventParams) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.Actions != nil {
		out["actions"] = p.Actions
	}
	if p.Order != 0 {
		out["order"] = p.Order
	}
	out["correct"] = p.Correct
	out["default"] = p.Default

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON implements json.Unmarshaler for EventParams.
func (p *EventParams) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("event params: %w", err)
	}

	*p = EventParams{}
	for k, v := range raw {
		var err error
		switch k {
		case "actions":
			err = json.Unmarshal(v, &p.Actions)
		case "order":
			err = json.Unmarshal(v, &p.Order)
		case "correct":
			err = json.Unmarshal(v, &p.Correct)
		case "default":
			err = json.Unmarshal(v, &p.Default)
		default:
			var val Value
			val, err = UnmarshalValue(v)
			if err == nil {
				if p.Extra == nil {
					p.Extra = Object{}
				}
				p.Extra[k] = val
			}
		}
		if err != nil {
			return fmt.Errorf("event params %q: %w", k, err)
		}
	}
	return nil
}

// Action types understood by the scoring stage. Other types pass through.
const (
	ActionFeedback    = "feedback"
	ActionNavigation  = "navigation"
	ActionMutateState = "mutateState"
)

// Action is one side effect attached to a rule's event.
type Action struct {
	Type   string `json:"type"`
	Params Object `json:"params,omitempty"`
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	out := a
	if a.Params != nil {
		out.Params = Clone(a.Params).(Object)
	}
	return out
}

// StateOperation is the decoded params of a mutateState action.
type StateOperation struct {
	Target     string
	Operator   string
	Value      Value
	TargetType VariableType
}

// StateOperation decodes a mutateState action. ok is false for other types or
// when the target is missing.
func (a Action) StateOperation() (op StateOperation, ok bool) {
	if a.Type != ActionMutateState {
		return StateOperation{}, false
	}
	target, _ := a.Params["target"].(String)
	if target == "" {
		return StateOperation{}, false
	}
	op.Target = string(target)
	if operator, isString := a.Params["operator"].(String); isString {
		op.Operator = string(operator)
	}
	op.Value = a.Params["value"]
	for _, key := range []string{"targetType", "type"} {
		if n, isNumber := a.Params[key].(Number); isNumber {
			op.TargetType = VariableType(n)
			break
		}
	}
	return op, true
}

// CloneRules deep copies a rule list.
func CloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].Conditions = r.Conditions.Clone()
		out[i].Event = r.Event.Clone()
	}
	return out
}

package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

// Compile errors wrapped by CompileError.
var (
	ErrMissingFact     = errors.New("condition has no fact")
	ErrMissingOperator = errors.New("condition has no operator")
	ErrInvalidKind     = errors.New("invalid condition kind")
)

// CompileError reports a condition that cannot be evaluated.
type CompileError struct {
	RuleID string
	Path   string // e.g. conditions.all[0].any[2]
	Err    error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("rule %q at %s: %v", e.RuleID, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compiled is a rule whose conditions have been checked and bound to
// operator kinds.
type Compiled struct {
	Rule ir.Rule
	root node
}

type node struct {
	kind     ir.ConditionKind
	children []node

	fact  string
	op    operator.Kind
	value ir.Value
	// valueFact names a fact to compare against instead of value, for
	// conditions written as {"value": {"fact": "stage.other"}}.
	valueFact string
}

// Compile validates a rule and prepares it for evaluation.
func Compile(r ir.Rule) (*Compiled, error) {
	root, err := compileNode(r.ID, "conditions", r.Conditions)
	if err != nil {
		return nil, err
	}
	return &Compiled{Rule: r, root: root}, nil
}

// CompileAll compiles every rule and returns all failures joined.
func CompileAll(rules []ir.Rule) ([]*Compiled, error) {
	out := make([]*Compiled, 0, len(rules))
	var errs []error
	for _, r := range rules {
		c, err := Compile(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func compileNode(ruleID, path string, c ir.Condition) (node, error) {
	switch c.Kind {
	case ir.ConditionAll, ir.ConditionAny:
		n := node{kind: c.Kind, children: make([]node, len(c.Children))}
		for i, child := range c.Children {
			compiled, err := compileNode(ruleID, fmt.Sprintf("%s.%s[%d]", path, c.Kind, i), child)
			if err != nil {
				return node{}, err
			}
			n.children[i] = compiled
		}
		return n, nil

	case ir.ConditionLeaf:
		fact := strings.TrimSpace(c.Fact)
		if fact == "" {
			return node{}, &CompileError{RuleID: ruleID, Path: path, Err: ErrMissingFact}
		}
		if strings.TrimSpace(c.Operator) == "" {
			return node{}, &CompileError{RuleID: ruleID, Path: path, Err: ErrMissingOperator}
		}
		op, err := operator.Parse(strings.TrimSpace(c.Operator))
		if err != nil {
			return node{}, &CompileError{RuleID: ruleID, Path: path, Err: err}
		}

		n := node{kind: ir.ConditionLeaf, fact: fact, op: op, value: c.Value}
		if obj, ok := c.Value.(ir.Object); ok {
			if ref, ok := obj["fact"].(ir.String); ok && len(obj) == 1 {
				n.valueFact = strings.TrimSpace(string(ref))
			}
		}
		return n, nil
	}
	return node{}, &CompileError{RuleID: ruleID, Path: path, Err: fmt.Errorf("%w: %d", ErrInvalidKind, int(c.Kind))}
}

// Matches evaluates the rule's condition tree against facts. An all node
// with no children is true, an any node with no children is false, and a
// leaf whose fact is missing is false.
func (c *Compiled) Matches(facts ir.Object) bool {
	return c.root.eval(facts)
}

func (n *node) eval(facts ir.Object) bool {
	switch n.kind {
	case ir.ConditionAll:
		for i := range n.children {
			if !n.children[i].eval(facts) {
				return false
			}
		}
		return true
	case ir.ConditionAny:
		for i := range n.children {
			if n.children[i].eval(facts) {
				return true
			}
		}
		return false
	}

	fact, ok := facts[n.fact]
	if !ok {
		return false
	}
	value := n.value
	if n.valueFact != "" {
		value = facts[n.valueFact]
	}
	return n.op.Apply(fact, value)
}

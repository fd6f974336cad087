package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

// Validation error codes (E100-E199)
const (
	ErrLoad             = "E100" // document unreadable or rejected by the schema
	ErrMissingEventType = "E101" // event.type is required
	ErrInvalidTree      = "E102" // conditions must be an all/any group
	ErrUnknownOperator  = "E103" // operator missing or not in the library
	ErrMissingFact      = "E104" // leaf has no fact
	ErrDuplicateRuleID  = "E105" // two rules share an id
)

// ValidationError represents a rule validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks decoded rules for problems the engine would reject.
// Returns all errors found (does not fail-fast).
func Validate(rules []ir.Rule) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)

	for i, r := range rules {
		field := fmt.Sprintf("rules[%d]", i)

		if id := r.ID; id != "" {
			if first, dup := seen[id]; dup {
				errs = append(errs, ValidationError{
					Field:   field + ".id",
					Message: fmt.Sprintf("id %q already used by rules[%d]", id, first),
					Code:    ErrDuplicateRuleID,
				})
			} else {
				seen[id] = i
			}
		}

		if strings.TrimSpace(r.Event.Type) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".event.type",
				Message: "event type is required",
				Code:    ErrMissingEventType,
			})
		}

		if r.Conditions.Kind == ir.ConditionLeaf {
			errs = append(errs, ValidationError{
				Field:   field + ".conditions",
				Message: "conditions must be an all or any group",
				Code:    ErrInvalidTree,
			})
			continue
		}
		errs = append(errs, validateCondition(field+".conditions", r.Conditions)...)
	}

	return errs
}

func validateCondition(field string, c ir.Condition) []ValidationError {
	if c.Kind != ir.ConditionLeaf {
		var errs []ValidationError
		for i, child := range c.Children {
			errs = append(errs, validateCondition(fmt.Sprintf("%s.%s[%d]", field, c.Kind, i), child)...)
		}
		return errs
	}

	var errs []ValidationError
	if strings.TrimSpace(c.Fact) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".fact",
			Message: "fact is required",
			Code:    ErrMissingFact,
		})
	}
	name := strings.TrimSpace(c.Operator)
	switch _, err := operator.Parse(name); {
	case name == "":
		errs = append(errs, ValidationError{
			Field:   field + ".operator",
			Message: "operator is required",
			Code:    ErrUnknownOperator,
		})
	case err != nil:
		errs = append(errs, ValidationError{
			Field:   field + ".operator",
			Message: err.Error(),
			Code:    ErrUnknownOperator,
		})
	}
	return errs
}

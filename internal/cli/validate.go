package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/adaptivity/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Rules    int                        `json:"rules"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.Warning         `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-file>",
		Short: "Validate a rules file without running it",
		Long: `Validate a rules document without evaluating any state.

Checks the document against the rules schema, then checks every rule for
problems the engine would reject: missing event types, malformed condition
trees, unknown operators, leaves without a fact and duplicate ids.
Warnings (no correct rule, builtin fallback, bind cycles) never fail
validation.

Exit codes:
  0 - Rules are valid
  1 - Validation errors found
  2 - Command error (file not found, unsupported format)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := compiler.FormatOf(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "cannot validate", err)
	}

	rules, err := compiler.LoadRules(path)
	if err != nil {
		var loadErr *compiler.LoadError
		if !errors.As(err, &loadErr) {
			return formatter.Fail(ExitCommandError, ErrCodeInput, "failed to read rules", err)
		}
		return outputValidationErrors(formatter, ValidationResult{
			Errors: []compiler.ValidationError{loadErrorToValidation(loadErr)},
		})
	}
	formatter.VerboseLog("Loaded %d rule(s) from %s", len(rules), path)

	result := ValidationResult{
		Valid:    true,
		Rules:    len(rules),
		Errors:   compiler.Validate(rules),
		Warnings: compiler.Analyze(rules),
	}
	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func loadErrorToValidation(err *compiler.LoadError) compiler.ValidationError {
	line := 0
	if err.Pos.IsValid() {
		line = err.Pos.Line()
	}
	return compiler.ValidationError{
		Field:   err.Field,
		Message: err.Message,
		Code:    compiler.ErrLoad,
		Line:    line,
	}
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	message := fmt.Sprintf("%d validation error(s)", len(result.Errors))

	if formatter.JSON() {
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeInvalidRules, Message: message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	w := formatter.Writer
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", e.Error())
	}
	writeWarnings(formatter, result.Warnings)
	fmt.Fprintf(w, "\n%s\n", message)
	return NewExitError(ExitFailure, message)
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	writeWarnings(formatter, result.Warnings)
	fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", result.Rules)
	return nil
}

func writeWarnings(formatter *OutputFormatter, warnings []compiler.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "! [%s] %s\n", w.Code, w.Message)
	}
}

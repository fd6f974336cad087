package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/adaptivity/internal/config"
	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/ir"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	ID       string // optional - one check only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Checks           []engine.ReplayReport `json:"checks"`
	TotalChecks      int                   `json:"total_checks"`
	Diverged         int                   `json:"diverged"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded checks and verify determinism",
		Long: `Re-evaluate every recorded check and compare it with what was stored.

Each record is replayed from its stored state, rules and scoring context.
A record diverges when its inputs no longer hash to the recorded input
hash, or when re-evaluation produces a different result.

Exit codes:
  0 - Every check replayed identically
  1 - One or more checks diverged
  2 - Command error (database not found, etc.)

Examples:
  adaptivity replay --db ./checks.db
  adaptivity replay --db ./checks.db --id 0192f0c4-...
  adaptivity replay --db ./checks.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "replay one check only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	st, err := openStore(ctx, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var records []ir.CheckRecord
	if opts.ID != "" {
		rec, err := st.ReadCheck(ctx, opts.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read check", err)
		}
		records = []ir.CheckRecord{rec}
	} else {
		records, err = st.ReadAllChecks(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read checks", err)
		}
	}
	formatter.VerboseLog("Replaying %d check(s) from %s", len(records), opts.Database)

	eng := engine.New(cfg.EngineOptions(cfg.Logger(formatter.GetErrWriter()))...)
	reports, err := eng.Replay(ctx, records)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay interrupted", err)
	}

	result := ReplayResult{
		Checks:           reports,
		TotalChecks:      len(reports),
		AllDeterministic: true,
	}
	for _, r := range reports {
		if !r.OK() {
			result.Diverged++
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayDiverged,
			Message: fmt.Sprintf("%d check(s) diverged", result.Diverged),
		}
	}
	if err := formatter.Respond(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("%d check(s) diverged", result.Diverged))
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer
	if result.TotalChecks == 0 {
		fmt.Fprintln(w, "No checks found in database.")
		return nil
	}

	for _, r := range result.Checks {
		if r.OK() {
			if formatter.Verbose {
				fmt.Fprintf(w, "✓ %s (seq %d)\n", r.ID, r.Seq)
			}
			continue
		}
		fmt.Fprintf(w, "✗ %s (seq %d)\n", r.ID, r.Seq)
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		case !r.InputMatch:
			fmt.Fprintln(w, "  stored inputs no longer match their hash")
		default:
			fmt.Fprintf(w, "  result hash %s, expected %s\n", r.Actual, r.Expected)
		}
	}

	fmt.Fprintf(w, "\nReplay Summary: %d replayed, %d diverged\n", result.TotalChecks, result.Diverged)
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("%d check(s) diverged", result.Diverged))
	}
	fmt.Fprintln(w, "✓ All checks deterministic")
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/adaptivity/internal/ir"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	InputHash string
}

// HistoryEntry summarizes one recorded check.
type HistoryEntry struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	Correct       bool     `json:"correct"`
	Score         float64  `json:"score"`
	OutOf         float64  `json:"out_of"`
	Sent          []string `json:"sent"`
	InputHash     string   `json:"input_hash"`
	EngineVersion string   `json:"engine_version"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded checks",
		Long: `List the checks recorded in a database, oldest first.

Examples:
  adaptivity history --db ./checks.db
  adaptivity history --db ./checks.db --input <input-hash> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.InputHash, "input", "", "only checks with this input hash")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(ctx, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var records []ir.CheckRecord
	if opts.InputHash != "" {
		records, err = st.ReadChecksByInput(ctx, opts.InputHash)
	} else {
		records, err = st.ReadAllChecks(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read checks", err)
	}

	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			ID:            rec.ID,
			Seq:           rec.Seq,
			Correct:       rec.Result.Correct,
			Score:         rec.Result.Score,
			OutOf:         rec.Result.OutOf,
			Sent:          ir.EventTypes(rec.Result.Results),
			InputHash:     rec.InputHash,
			EngineVersion: rec.EngineVersion,
		}
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No checks found in database.")
		return nil
	}
	for _, e := range entries {
		mark := "✗"
		if e.Correct {
			mark = "✓"
		}
		fmt.Fprintf(w, "%4d  %s %s  %s/%s  %v\n", e.Seq, mark, e.ID,
			ir.FormatNumber(e.Score), ir.FormatNumber(e.OutOf), e.Sent)
	}
	return nil
}

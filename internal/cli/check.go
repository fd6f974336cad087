package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/adaptivity/internal/config"
	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	State    string
	Rules    string
	Scoring  string
	Encode   bool
	Database string // record the check here; defaults to ADAPTIVITY_DB
	ID       string // check id to record under; generated when empty
}

// CheckOutput is the JSON payload of a check.
type CheckOutput struct {
	ID      string     `json:"id,omitempty"`
	Result  *ir.Result `json:"result,omitempty"`
	Encoded string     `json:"encoded,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a learner state against a rule set",
		Long: `Evaluate a learner state against a rule set and print the result.

State and scoring files may be JSON or YAML. Rules may be JSON, YAML or CUE.
With --db (or ADAPTIVITY_DB) the check is recorded for later replay.

Exit codes:
  0 - Check evaluated (correct or not)
  1 - Check failed (unknown operator, invalid rule)
  2 - Command error (unreadable input, bad configuration)

Examples:
  adaptivity check --state state.json --rules rules.yaml
  adaptivity check --state state.json --rules rules.json --scoring scoring.json --encode
  adaptivity check --state state.json --rules rules.cue --db ./checks.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "learner state file (JSON or YAML)")
	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rules file (JSON, YAML or CUE, required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().StringVar(&opts.Scoring, "scoring", "", "scoring context file (JSON or YAML)")
	cmd.Flags().BoolVar(&opts.Encode, "encode", false, "print the base64 encoded result")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the check in this SQLite database")
	cmd.Flags().StringVar(&opts.ID, "id", "", "check id to record under")

	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	logger := cfg.Logger(formatter.GetErrWriter())

	req, err := loadRequest(opts.State, opts.Rules, opts.Scoring)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "failed to read input", err)
	}
	formatter.VerboseLog("Loaded %d rule(s) and %d state key(s)", len(req.Rules), len(req.State))

	engineOpts := cfg.EngineOptions(logger)
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	id := ""
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer st.Close()

		last, err := st.LastSeq(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read database", err)
		}
		id = opts.ID
		if id == "" {
			id = engine.UUIDv7Generator{}.Generate()
		}
		engineOpts = append(engineOpts,
			engine.WithRecorder(st),
			engine.WithClock(engine.NewClockAt(last)),
			engine.WithIDGenerator(engine.NewFixedGenerator(id)),
		)
	}
	eng := engine.New(engineOpts...)

	out := CheckOutput{ID: id}
	if opts.Encode {
		out.Encoded, err = eng.CheckEncoded(ctx, req)
	} else {
		out.Result, err = eng.Check(ctx, req)
	}
	if err != nil {
		return checkFailed(formatter, err)
	}

	if formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: out, TraceID: id})
	}
	writeCheckText(cmd.OutOrStdout(), out)
	return nil
}

func checkFailed(formatter *OutputFormatter, err error) error {
	var checkErr *engine.CheckError
	if errors.As(err, &checkErr) {
		return formatter.Fail(ExitFailure, string(checkErr.Code), "check failed", err)
	}
	return formatter.Fail(ExitFailure, ErrCodeInput, "check failed", err)
}

func writeCheckText(w io.Writer, out CheckOutput) {
	if out.Encoded != "" {
		fmt.Fprintln(w, out.Encoded)
		return
	}

	res := out.Result
	mark, verdict := "✗", "incorrect"
	if res.Correct {
		mark, verdict = "✓", "correct"
	}
	fmt.Fprintf(w, "%s %s (score %s / %s)\n", mark, verdict, ir.FormatNumber(res.Score), ir.FormatNumber(res.OutOf))
	for _, event := range res.Results {
		actions := make([]string, len(event.Params.Actions))
		for i, a := range event.Params.Actions {
			actions[i] = a.Type
		}
		if len(actions) == 0 {
			fmt.Fprintf(w, "  %s\n", event.Type)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", event.Type, strings.Join(actions, ", "))
	}
	if out.ID != "" {
		fmt.Fprintf(w, "Recorded as %s\n", out.ID)
	}
}

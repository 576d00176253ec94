package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nao1215/fpprobe/internal/config"
	"github.com/nao1215/fpprobe/internal/history"
	"github.com/nao1215/fpprobe/internal/report"
	"github.com/spf13/cobra"
)

// latestRunArg selects the most recent run.
const latestRunArg = "latest"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded probe runs",
		Long: `History reads the runs recorded by 'fpprobe run'.

Without arguments it lists every run, newest first. With a run ID (or
"latest") it prints the iterations of that run.

Examples:
  # List recorded runs
  fpprobe history

  # Show the most recent run
  fpprobe history latest

  # Render a run as Markdown
  fpprobe history --markdown 0b6c3f0e-4d0a-4a53-9a0e-5d3b1c0e8f11

  # Output the run list as JSON
  fpprobe history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("db-dir", "d", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	store, err := history.Open(dbDir, history.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		if markdownOut {
			return errors.New("--markdown requires a run ID")
		}
		return listRuns(ctx, store, out, jsonOut)
	}

	runID := args[0]
	if runID == latestRunArg {
		runID, err = store.LatestRunID(ctx)
		if err != nil {
			return fmt.Errorf("no recorded runs: %w", err)
		}
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var w report.Writer
	switch {
	case jsonOut:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOut:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}
	_, err = w.Write(run)
	return err
}

// listRuns prints all recorded runs.
func listRuns(ctx context.Context, store *history.Store, out io.Writer, jsonOut bool) error {
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		if runs == nil {
			runs = []history.RunInfo{}
		}
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tITERATIONS\tSUCCEEDED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.RunID, r.StartedAt.Local().Format(time.DateTime), r.Iterations, r.Succeeded)
	}
	return tw.Flush()
}

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"spinefetch/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent download runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						formatTimestamp(run.StartedAt),
						formatTimestamp(run.FinishedAt),
						strconv.Itoa(run.TaskCount),
						strconv.Itoa(run.Completed),
						strconv.Itoa(run.Failed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Finished", "Tasks", "Completed", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its dead-lettered tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return errors.New("run " + args[0] + " not found")
				}
				failures, err := store.Failures(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				manifestPath := run.ManifestPath
				if manifestPath == "" {
					manifestPath = "-"
				}
				fmt.Fprintln(out, renderKeyValues([][2]string{
					{"Run", run.ID},
					{"Started", formatTimestamp(run.StartedAt)},
					{"Finished", formatTimestamp(run.FinishedAt)},
					{"Tasks", strconv.Itoa(run.TaskCount)},
					{"Completed", strconv.Itoa(run.Completed)},
					{"Failed", strconv.Itoa(run.Failed)},
					{"Manifest", manifestPath},
				}))
				if len(failures) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(failures))
				for _, f := range failures {
					rows = append(rows, []string{f.TaskKey, f.Kind, f.URL, oneLine(f.Error)})
				}
				fmt.Fprintln(out, renderTable([]string{"Task", "Kind", "URL", "Error"}, rows, nil))
				return nil
			})
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd(load func() (*app, error)) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one win reconciliation sweep",
		Long: `Reconcile brings the wins feed in line with what is complete: missing
wins are created and wins whose task, milestone or goal was reopened or
deleted are removed. Manual wins are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.handler.Scheduler.RunNow(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconciliation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %s, %d created, %d removed\n", run.ID, run.Status, run.Created, run.Removed)

			if history <= 0 {
				return nil
			}
			runs, err := a.service.ReconciliationRuns(cmd.Context(), history)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(out, "  %s  %-9s  +%d -%d  %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Created, r.Removed, r.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "also list the most recent runs")
	return cmd
}

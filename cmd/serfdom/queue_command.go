package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show in-flight requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			queue, err := c.Queue(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, queue)
			}
			if queue.Length == 0 {
				fmt.Fprintln(out, "Queue is empty.")
				return nil
			}

			ids := make([]string, 0, len(queue.Active))
			for id := range queue.Active {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{id, stageLabel(queue.Active[id])})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Request", "Current Stage"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newMetricsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show engine processing metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			metricsView, err := c.Metrics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, metricsView)
			}
			fmt.Fprintf(out, "Processed:     %d\n", metricsView.TotalProcessed)
			fmt.Fprintf(out, "Failed:        %d\n", metricsView.TotalFailed)
			fmt.Fprintf(out, "Success rate:  %.1f%%\n", metricsView.SuccessRate*100)
			fmt.Fprintf(out, "Avg duration:  %.3fs\n", metricsView.AverageProcessingTimeSeconds)
			fmt.Fprintf(out, "In flight:     %d\n", metricsView.QueueLength)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			snapshot, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, snapshot)
			}

			fmt.Fprintf(out, "Running:       %s\n", yesNo(snapshot.Running))
			fmt.Fprintf(out, "PID:           %d\n", snapshot.PID)
			ledgerPath := snapshot.LedgerPath
			if ledgerPath == "" {
				ledgerPath = "(in-memory)"
			}
			fmt.Fprintf(out, "Ledger:        %s\n", ledgerPath)
			fmt.Fprintf(out, "Lock file:     %s\n", snapshot.LockFilePath)
			fmt.Fprintf(out, "LLM ready:     %s\n", yesNo(snapshot.LLMReady))
			fmt.Fprintf(out, "Processed:     %d (%d failed)\n", snapshot.Metrics.TotalProcessed, snapshot.Metrics.TotalFailed)
			fmt.Fprintf(out, "Success rate:  %.1f%%\n", snapshot.Metrics.SuccessRate*100)
			fmt.Fprintf(out, "Avg duration:  %.3fs\n", snapshot.Metrics.AverageProcessingTimeSeconds)

			if snapshot.Queue.Length == 0 {
				fmt.Fprintln(out, "Queue:         empty")
				return nil
			}
			fmt.Fprintf(out, "Queue:         %d in flight\n", snapshot.Queue.Length)
			ids := make([]string, 0, len(snapshot.Queue.Active))
			for id := range snapshot.Queue.Active {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "  %s  %s\n", id, stageLabel(snapshot.Queue.Active[id]))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"serfdom/internal/api"
)

func newStrategizeCommand(ctx *commandContext) *cobra.Command {
	var (
		contextJSON string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "strategize <objective>",
		Short: "Ask the overseer for a strategic plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objective := strings.TrimSpace(strings.Join(args, " "))
			if objective == "" {
				return fmt.Errorf("objective is required")
			}
			planContext, err := parseJSONObject(contextJSON, "--context")
			if err != nil {
				return err
			}

			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			plan, err := c.Strategize(cmd.Context(), api.StrategizeRequest{
				Objective: objective,
				Context:   planContext,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, plan)
			}
			fmt.Fprintf(out, "Objective:  %s\n", plan.Objective)
			fmt.Fprintf(out, "Timeline:   %s\n", plan.Timeline)
			fmt.Fprintf(out, "Approach:   %s\n", plan.Approach)
			if len(plan.TaskBreakdown) > 0 {
				fmt.Fprintln(out, "Tasks:")
				for i, entry := range plan.TaskBreakdown {
					fmt.Fprintf(out, "  %d. [%s p%d] %s\n", i+1, entry.AgentType, entry.Priority, entry.Description)
				}
			}
			for _, metric := range plan.SuccessMetrics {
				fmt.Fprintf(out, "Metric:     %s\n", metric)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contextJSON, "context", "", "Planning context as a JSON object")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

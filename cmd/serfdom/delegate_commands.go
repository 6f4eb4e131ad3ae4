package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"serfdom/internal/api"
)

func newDelegateCommand(ctx *commandContext) *cobra.Command {
	var (
		agentType   string
		priority    int
		contextJSON string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "delegate <task description>",
		Short: "Record a delegation through the overseer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.TrimSpace(strings.Join(args, " "))
			if description == "" {
				return fmt.Errorf("task description is required")
			}
			taskContext, err := parseJSONObject(contextJSON, "--context")
			if err != nil {
				return err
			}

			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := c.Delegate(cmd.Context(), api.DelegateRequest{
				AgentType:       agentType,
				TaskDescription: description,
				Priority:        priority,
				Context:         taskContext,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, view)
			}
			fmt.Fprintf(out, "Delegation:  %s\n", view.DelegationID)
			fmt.Fprintf(out, "Agent:       %s\n", view.AgentType)
			fmt.Fprintf(out, "Priority:    %d\n", view.Priority)
			fmt.Fprintf(out, "Status:      %s\n", view.Status)
			fmt.Fprintf(out, "Completion:  %s\n", view.EstimatedCompletion)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentType, "agent", "peasant", "Agent type (serf or peasant)")
	cmd.Flags().IntVar(&priority, "priority", 1, "Priority 1-5")
	cmd.Flags().StringVar(&contextJSON, "context", "", "Delegation context as a JSON object")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newDelegationsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "delegations",
		Short: "List the delegation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			records, err := c.Delegations(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, api.DelegationListResponse{Delegations: records})
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No delegations recorded.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.DelegationID,
					record.AgentType,
					truncate(record.Task, 48),
					strconv.Itoa(record.Priority),
					record.Status,
					record.EstimatedCompletion,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Delegation", "Agent", "Task", "Priority", "Status", "Completion"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

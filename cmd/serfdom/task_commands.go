package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"serfdom/internal/api"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "task <request-id>",
		Short: "Show one task by request id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := c.Task(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, view)
			}

			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Request:  %s\n", view.RequestID)
			fmt.Fprintf(out, "Status:   %s\n", colorizeStatus(view.Status, colorize))
			if view.CurrentStage != "" {
				fmt.Fprintf(out, "Stage:    %s\n", stageLabel(view.CurrentStage))
			}
			fmt.Fprintf(out, "Stages:   %s\n", formatStages(view.StagesCompleted))
			if view.CompletedAt != "" {
				fmt.Fprintf(out, "Finished: %s\n", view.CompletedAt)
				fmt.Fprintf(out, "Duration: %.3fs\n", view.ProcessingTimeSeconds)
			}
			if view.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:    %s\n", view.ErrorMessage)
			}
			for _, warning := range view.Warnings {
				fmt.Fprintf(out, "Warning:  %s\n", warning)
			}
			if len(view.Data) > 0 {
				fmt.Fprintln(out, "Data:")
				if err := printJSON(out, view.Data); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List recent task results",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			views, err := c.Tasks(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, api.TaskListResponse{Tasks: views})
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No task results recorded.")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					view.RequestID,
					view.Status,
					strconv.Itoa(len(view.StagesCompleted)),
					fmt.Sprintf("%.3fs", view.ProcessingTimeSeconds),
					view.CompletedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Request", "Status", "Stages", "Duration", "Completed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"serfdom/internal/api"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		requestID   string
		requestType string
		payloadJSON string
		priority    int
		requester   string
		async       bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Submit a task to the processing pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(requestType) == "" {
				return fmt.Errorf("--type is required")
			}
			payload, err := parseJSONObject(payloadJSON, "--payload")
			if err != nil {
				return err
			}

			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := c.Process(cmd.Context(), api.ProcessRequest{
				RequestID:   requestID,
				RequestType: requestType,
				Payload:     payload,
				Priority:    priority,
				Requester:   requester,
				Async:       async,
			})
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
			if async {
				fmt.Fprintf(out, "Track it with: serfdom task %s\n", view.RequestID)
				return nil
			}
			fmt.Fprintf(out, "Duration: %.3fs\n", view.ProcessingTimeSeconds)
			fmt.Fprintf(out, "Stages:   %s\n", formatStages(view.StagesCompleted))
			if view.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:    %s\n", view.ErrorMessage)
			}
			for _, warning := range view.Warnings {
				fmt.Fprintf(out, "Warning:  %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&requestID, "id", "", "Request id (generated when empty)")
	cmd.Flags().StringVar(&requestType, "type", "", "Task type (data_analysis, data_transformation, computation, integration)")
	cmd.Flags().StringVar(&payloadJSON, "payload", "", "Task payload as a JSON object")
	cmd.Flags().IntVar(&priority, "priority", 1, "Priority 1-5")
	cmd.Flags().StringVar(&requester, "requester", "", "Requester identity")
	cmd.Flags().BoolVar(&async, "async", false, "Submit without waiting for completion")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func parseJSONObject(raw, flagName string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("%s must be a JSON object: %w", flagName, err)
	}
	return decoded, nil
}

func formatStages(stages []string) string {
	if len(stages) == 0 {
		return "(none)"
	}
	labels := make([]string, 0, len(stages))
	for _, stage := range stages {
		labels = append(labels, stageLabel(stage))
	}
	return strings.Join(labels, " > ")
}

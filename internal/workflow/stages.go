package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"serfdom/internal/logging"
	"serfdom/internal/processing"
	"serfdom/internal/validation"
)

// validateInput runs the request validator. The stage counts as completed
// even when validation fails; the error is what diverts the pipeline.
func (e *Engine) validateInput(ctx context.Context, state *State) {
	defer state.completeStage(StageValidation)

	result := validation.Validate(state.Request)
	state.ValidationResults = &result
	state.Payload = result.SanitizedPayload
	for _, warning := range result.Warnings {
		state.addWarning(warning)
	}

	if !result.IsValid {
		state.Err = fmt.Errorf("Validation failed: %s", strings.Join(result.Errors, ", "))
		return
	}
	e.logger.Debug("validation passed",
		logging.String(logging.FieldRequestID, state.Request.ID),
		logging.Int("warnings", len(result.Warnings)),
	)
}

func (e *Engine) preprocessData(ctx context.Context, state *State) {
	defer state.completeStage(StagePreprocessing)

	defer func() {
		if recovered := recover(); recovered != nil {
			state.Err = fmt.Errorf("Preprocessing error: %v", recovered)
		}
	}()
	state.Payload = processing.Preprocess(state.Request.Kind, state.Payload)
}

func (e *Engine) processData(ctx context.Context, state *State) {
	defer state.completeStage(StageProcessing)

	defer func() {
		if recovered := recover(); recovered != nil {
			state.Err = fmt.Errorf("Processing error: %v", recovered)
		}
	}()
	results, err := processing.Process(state.Request.Kind, state.Payload, state.Request.Metadata)
	if err != nil {
		state.Err = fmt.Errorf("Processing error: %v", err)
		return
	}
	state.ProcessingResults = results
}

// postprocessData wraps the processing results with delivery metadata and
// applies the requested output format.
func (e *Engine) postprocessData(ctx context.Context, state *State) {
	defer state.completeStage(StagePostprocessing)

	req := state.Request
	wrapped := map[string]any{
		"request_id":   req.ID,
		"request_type": string(req.Kind),
		"results":      state.ProcessingResults,
		"metadata": map[string]any{
			"processed_at":       time.Now().UTC().Format(time.RFC3339),
			"processing_stages":  state.stagesSnapshot(),
			"warnings":           append([]string(nil), state.Warnings...),
			"data_quality_score": qualityScore(len(state.Warnings)),
		},
	}
	state.ProcessingResults = formatResults(wrapped, req.MetadataString("format", ""))
}

// formatResults applies the requester's output format. "summary" condenses,
// "json" and anything unrecognized pass through.
func formatResults(results map[string]any, format string) map[string]any {
	if format != "summary" {
		return results
	}
	metadata, _ := results["metadata"].(map[string]any)
	resultCount := 0
	if inner, ok := results["results"].(map[string]any); ok {
		resultCount = len(inner)
	}
	return map[string]any{
		"summary":      "Processing completed successfully",
		"key_metrics":  metadata,
		"result_count": resultCount,
	}
}

// storeResults synthesizes the storage envelope. Durable persistence of the
// terminal result happens once, at finalization.
func (e *Engine) storeResults(ctx context.Context, state *State) {
	defer state.completeStage(StageStorage)

	encoded, err := json.Marshal(state.ProcessingResults)
	if err != nil {
		state.Err = fmt.Errorf("Storage error: %v", err)
		return
	}
	retention := "30_days"
	if e.cfg != nil && e.cfg.Workflow.StorageRetention != "" {
		retention = e.cfg.Workflow.StorageRetention
	}
	storageKey := "results_" + state.Request.ID
	state.StorageResults = map[string]any{
		"storage_key":      storageKey,
		"stored_at":        time.Now().UTC().Format(time.RFC3339),
		"size_bytes":       len(encoded),
		"retention_period": retention,
	}
	e.logger.Debug("results staged for storage",
		logging.String(logging.FieldRequestID, state.Request.ID),
		logging.String("storage_key", storageKey),
	)
}

// notifyCompletion builds the notification record and pushes the external
// notification. Failures here downgrade to warnings.
func (e *Engine) notifyCompletion(ctx context.Context, state *State) {
	defer state.completeStage(StageNotification)

	req := state.Request
	storageKey := ""
	if state.StorageResults != nil {
		storageKey, _ = state.StorageResults["storage_key"].(string)
	}
	state.NotificationResults = map[string]any{
		"request_id":        req.ID,
		"status":            "completed",
		"requester":         req.Requester,
		"completion_time":   time.Now().UTC().Format(time.RFC3339),
		"results_available": true,
		"storage_key":       storageKey,
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyTaskCompleted(ctx, req.ID, string(req.Kind), time.Since(state.StartedAt)); err != nil {
			state.addWarning(fmt.Sprintf("Notification error: %v", err))
			e.logger.Warn("completion notification failed",
				logging.String(logging.FieldRequestID, req.ID),
				logging.Error(err),
			)
		}
	}
}

// handleError is the terminal failure stage. It logs structured detail and
// consults the recovery hook, which currently always declines.
func (e *Engine) handleError(ctx context.Context, state *State) {
	req := state.Request
	e.logger.Error("request entered error handling",
		logging.String(logging.FieldRequestID, req.ID),
		logging.String("error", state.Err.Error()),
		logging.String("failed_stage", state.stage()),
		logging.Any("stages_completed", state.stagesSnapshot()),
	)

	if recoverFromError(state) {
		state.addWarning("Error recovery attempted")
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyTaskFailed(ctx, req.ID, state.Err.Error()); err != nil {
			e.logger.Warn("failure notification failed",
				logging.String(logging.FieldRequestID, req.ID),
				logging.Error(err),
			)
		}
	}
}

// recoverFromError is the recovery extension point. No strategy is
// implemented; it always declines so failures stay visible.
func recoverFromError(state *State) bool {
	message := ""
	if state.Err != nil {
		message = strings.ToLower(state.Err.Error())
	}
	switch {
	case strings.Contains(message, "validation"):
		return false
	case strings.Contains(message, "memory"):
		return false
	default:
		return false
	}
}

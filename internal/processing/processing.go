// Package processing implements the per-kind data operations the workflow
// engine dispatches to. Each handler takes the sanitized payload plus the
// request metadata and returns a result map; handlers never mutate their
// input.
package processing

import (
	"fmt"
	"regexp"
	"strconv"

	"serfdom/internal/task"
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Preprocess prepares the payload for its processing kind. Analysis requests
// get numeric-looking strings coerced to numbers; other kinds pass through a
// shallow copy unchanged.
func Preprocess(kind task.Kind, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	if kind != task.KindAnalysis {
		return out
	}
	for key, value := range out {
		str, ok := value.(string)
		if !ok {
			continue
		}
		switch {
		case intPattern.MatchString(str):
			if parsed, err := strconv.ParseInt(str, 10, 64); err == nil {
				out[key] = parsed
			}
		case floatPattern.MatchString(str):
			if parsed, err := strconv.ParseFloat(str, 64); err == nil {
				out[key] = parsed
			}
		}
	}
	return out
}

// Process routes the payload to the handler for its kind. Unsupported kinds
// get the generic handler so the pipeline still completes.
func Process(kind task.Kind, payload map[string]any, metadata map[string]any) (map[string]any, error) {
	switch kind {
	case task.KindAnalysis:
		return Analyze(payload, metadata), nil
	case task.KindTransformation:
		return Transform(payload, metadata), nil
	case task.KindComputation:
		return Compute(payload, metadata), nil
	case task.KindIntegration:
		return Integrate(payload, metadata), nil
	default:
		return map[string]any{
			"status":  "processed",
			"kind":    string(kind),
			"message": fmt.Sprintf("no dedicated handler for %q, payload passed through", kind),
			"data":    payload,
		}, nil
	}
}

func metadataString(metadata map[string]any, key, fallback string) string {
	if metadata == nil {
		return fallback
	}
	if value, ok := metadata[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// numericValue reports value as a float64 when it carries a numeric type.
// JSON-decoded payloads arrive as float64; literals built in Go may use any
// of the common integer widths.
func numericValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}

func numericFields(payload map[string]any) map[string]float64 {
	out := map[string]float64{}
	for key, value := range payload {
		if number, ok := numericValue(value); ok {
			out[key] = number
		}
	}
	return out
}

// payloadExtent approximates the textual size of a payload, used for the
// before/after size bookkeeping in transformation and integration results.
func payloadExtent(payload map[string]any) int {
	return len(fmt.Sprintf("%v", payload))
}

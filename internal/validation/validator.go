// Package validation checks and sanitizes incoming requests before they
// enter the workflow pipeline.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"serfdom/internal/task"
)

// maxPayloadBytes is the serialized payload size above which a performance
// warning is attached. Oversized payloads are still processed.
const maxPayloadBytes = 1 << 20

// denylist holds substrings stripped from every string value in the payload.
// Matching is case-sensitive; removal is idempotent.
var denylist = []string{
	"<script>",
	"</script>",
	"DROP TABLE",
	"DELETE FROM",
}

// Validate applies all validation rules to a request and returns the
// aggregate outcome. Rules run independently so a failing rule never masks
// the findings of the others.
func Validate(req *task.Request) task.ValidationResult {
	result := task.ValidationResult{IsValid: true}

	if len(req.Payload) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, "No data provided")
	}

	result.SanitizedPayload = sanitizeMap(req.Payload)

	if !req.Kind.Supported() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown task type: %s", req.Kind))
	}

	if size := payloadSize(req.Payload); size > maxPayloadBytes {
		result.Warnings = append(result.Warnings, "Large payload may impact performance")
	}

	return result
}

// Sanitize strips denylisted substrings from a single string value.
func Sanitize(value string) string {
	for _, needle := range denylist {
		value = strings.ReplaceAll(value, needle, "")
	}
	return value
}

func sanitizeMap(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case string:
		return Sanitize(typed)
	case map[string]any:
		return sanitizeMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}

func payloadSize(payload map[string]any) int {
	if len(payload) == 0 {
		return 0
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	return len(encoded)
}

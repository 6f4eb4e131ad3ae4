package processing

import "time"

// Integrate simulates a push to an external system. No bytes actually leave
// the process; the result records what would have been sent.
func Integrate(payload map[string]any, metadata map[string]any) map[string]any {
	return map[string]any{
		"status":           "integrated",
		"integration_type": metadataString(metadata, "integration_type", "api"),
		"data_sent":        payloadExtent(payload),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	}
}

package processing

import "sort"

// Compute runs the computation sub-mode named in metadata: "mathematical",
// "optimization", or anything else for the basic field summary.
func Compute(payload map[string]any, metadata map[string]any) map[string]any {
	switch metadataString(metadata, "computation_type", "basic") {
	case "mathematical":
		return mathematicalComputation(payload)
	case "optimization":
		return optimizationComputation(payload)
	default:
		return basicComputation(payload)
	}
}

func basicComputation(payload map[string]any) map[string]any {
	numeric := numericFields(payload)
	var sum float64
	for _, value := range numeric {
		sum += value
	}
	return map[string]any{
		"status":         "computed",
		"total_fields":   len(payload),
		"numeric_fields": len(numeric),
		"sum":            sum,
	}
}

func mathematicalComputation(payload map[string]any) map[string]any {
	numeric := numericFields(payload)
	result := map[string]any{
		"status":           "computed",
		"computation_type": "mathematical",
	}
	if len(numeric) == 0 {
		result["error"] = "No numeric data found for mathematical computation"
		return result
	}
	var sum float64
	product := 1.0
	for _, value := range numeric {
		sum += value
		product *= value
	}
	result["sum"] = sum
	result["product"] = product
	result["mean"] = sum / float64(len(numeric))
	return result
}

// optimizationComputation reports the field holding the maximum numeric
// value. Ties break toward the lexically smallest key.
func optimizationComputation(payload map[string]any) map[string]any {
	numeric := numericFields(payload)
	result := map[string]any{
		"status":           "computed",
		"computation_type": "optimization",
	}
	if len(numeric) == 0 {
		result["error"] = "No numeric data found for optimization"
		return result
	}
	keys := make([]string, 0, len(numeric))
	for key := range numeric {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	bestKey := keys[0]
	bestValue := numeric[bestKey]
	for _, key := range keys[1:] {
		if numeric[key] > bestValue {
			bestKey, bestValue = key, numeric[key]
		}
	}
	result["optimal_field"] = bestKey
	result["optimal_value"] = bestValue
	return result
}

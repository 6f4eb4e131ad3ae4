package processing

import (
	"fmt"
	"math"
	"sort"
)

// Analyze runs the analysis sub-mode named in metadata: "statistical",
// "trend", or anything else for the basic summary.
func Analyze(payload map[string]any, metadata map[string]any) map[string]any {
	switch metadataString(metadata, "analysis_type", "basic") {
	case "statistical":
		return statisticalAnalysis(payload)
	case "trend":
		return trendAnalysis(payload)
	default:
		return basicAnalysis(payload)
	}
}

func basicAnalysis(payload map[string]any) map[string]any {
	dataTypes := make(map[string]any, len(payload))
	for key, value := range payload {
		dataTypes[key] = fmt.Sprintf("%T", value)
	}
	analysis := map[string]any{
		"total_fields": len(payload),
		"data_types":   dataTypes,
		"summary":      "Basic analysis completed",
	}
	numeric := numericFields(payload)
	if len(numeric) > 0 {
		var sum float64
		for _, value := range numeric {
			sum += value
		}
		analysis["numeric_summary"] = map[string]any{
			"count":   len(numeric),
			"sum":     sum,
			"average": sum / float64(len(numeric)),
		}
	}
	return analysis
}

// statisticalAnalysis computes descriptive statistics over the numeric
// payload fields. Variance is the population variance (divide by N).
func statisticalAnalysis(payload map[string]any) map[string]any {
	numeric := numericFields(payload)
	if len(numeric) == 0 {
		return map[string]any{"error": "No numeric data found for statistical analysis"}
	}

	// Sorted key order keeps min/max deterministic when values tie.
	keys := make([]string, 0, len(numeric))
	for key := range numeric {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([]float64, 0, len(keys))
	for _, key := range keys {
		values = append(values, numeric[key])
	}

	var sum float64
	minimum, maximum := values[0], values[0]
	for _, value := range values {
		sum += value
		if value < minimum {
			minimum = value
		}
		if value > maximum {
			maximum = value
		}
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, value := range values {
		delta := value - mean
		variance += delta * delta
	}
	variance /= float64(len(values))

	return map[string]any{
		"statistical_analysis": map[string]any{
			"count":    len(values),
			"sum":      sum,
			"mean":     mean,
			"min":      minimum,
			"max":      maximum,
			"variance": variance,
			"std_dev":  math.Sqrt(variance),
		},
	}
}

func trendAnalysis(payload map[string]any) map[string]any {
	return map[string]any{
		"trend_analysis":  "Trend analysis completed",
		"data_points":     len(payload),
		"trend_direction": "stable",
	}
}

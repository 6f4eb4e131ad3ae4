package processing

// Transform applies the transformation sub-mode named in metadata and wraps
// the result in a size-accounting envelope.
func Transform(payload map[string]any, metadata map[string]any) map[string]any {
	transformed := make(map[string]any, len(payload))
	for key, value := range payload {
		transformed[key] = value
	}

	switch metadataString(metadata, "transformation_type", "standard") {
	case "normalize":
		transformed = normalizeData(transformed)
	case "aggregate":
		transformed = aggregateData(transformed)
	case "filter":
		criteria, _ := metadata["filter_criteria"].(map[string]any)
		transformed = filterData(transformed, criteria)
	}

	return map[string]any{
		"status":           "transformed",
		"original_size":    payloadExtent(payload),
		"transformed_size": payloadExtent(transformed),
		"data":             transformed,
	}
}

// normalizeData rescales numeric fields into [0,1] via min-max scaling.
// Non-numeric fields pass through; if every numeric value is identical the
// scaled value is 0.
func normalizeData(payload map[string]any) map[string]any {
	numeric := numericFields(payload)
	if len(numeric) == 0 {
		return payload
	}
	var minimum, maximum float64
	first := true
	for _, value := range numeric {
		if first {
			minimum, maximum = value, value
			first = false
			continue
		}
		if value < minimum {
			minimum = value
		}
		if value > maximum {
			maximum = value
		}
	}
	span := maximum - minimum
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		number, ok := numeric[key]
		if !ok {
			out[key] = value
			continue
		}
		if span == 0 {
			out[key] = 0.0
		} else {
			out[key] = (number - minimum) / span
		}
	}
	return out
}

// aggregateData collapses the numeric fields into a single summary entry and
// keeps the non-numeric fields alongside it.
func aggregateData(payload map[string]any) map[string]any {
	numeric := numericFields(payload)
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		if _, ok := numeric[key]; !ok {
			out[key] = value
		}
	}
	var sum float64
	for _, value := range numeric {
		sum += value
	}
	aggregate := map[string]any{
		"count": len(numeric),
		"sum":   sum,
	}
	if len(numeric) > 0 {
		aggregate["average"] = sum / float64(len(numeric))
	}
	out["aggregate"] = aggregate
	return out
}

// filterData keeps only the fields matching the criteria. String-valued
// criteria match on equality; a nil or empty criteria map keeps everything.
func filterData(payload map[string]any, criteria map[string]any) map[string]any {
	if len(criteria) == 0 {
		return payload
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		expected, constrained := criteria[key]
		if !constrained || expected == value {
			out[key] = value
		}
	}
	return out
}

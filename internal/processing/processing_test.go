package processing

import (
	"math"
	"testing"

	"serfdom/internal/task"
)

func TestPreprocessCoercesNumericStringsForAnalysis(t *testing.T) {
	payload := map[string]any{
		"count":   "42",
		"ratio":   "3.14",
		"signed":  "-7",
		"label":   "v1.2.3",
		"already": 10,
	}
	out := Preprocess(task.KindAnalysis, payload)
	if got, ok := out["count"].(int64); !ok || got != 42 {
		t.Fatalf("count = %v (%T)", out["count"], out["count"])
	}
	if got, ok := out["ratio"].(float64); !ok || got != 3.14 {
		t.Fatalf("ratio = %v (%T)", out["ratio"], out["ratio"])
	}
	if got, ok := out["signed"].(int64); !ok || got != -7 {
		t.Fatalf("signed = %v (%T)", out["signed"], out["signed"])
	}
	if got := out["label"].(string); got != "v1.2.3" {
		t.Fatalf("label should stay a string, got %q", got)
	}
	// original untouched
	if _, ok := payload["count"].(string); !ok {
		t.Fatal("preprocess must not mutate its input")
	}
}

func TestPreprocessOtherKindsPassThrough(t *testing.T) {
	payload := map[string]any{"count": "42"}
	out := Preprocess(task.KindComputation, payload)
	if _, ok := out["count"].(string); !ok {
		t.Fatal("non-analysis kinds must not coerce strings")
	}
}

func TestStatisticalAnalysis(t *testing.T) {
	payload := map[string]any{"a": 2, "b": 4, "c": 6, "label": "x"}
	result := Analyze(payload, map[string]any{"analysis_type": "statistical"})
	stats, ok := result["statistical_analysis"].(map[string]any)
	if !ok {
		t.Fatalf("missing statistical_analysis in %v", result)
	}
	if stats["count"].(int) != 3 {
		t.Fatalf("count = %v", stats["count"])
	}
	if stats["sum"].(float64) != 12 {
		t.Fatalf("sum = %v", stats["sum"])
	}
	if stats["mean"].(float64) != 4 {
		t.Fatalf("mean = %v", stats["mean"])
	}
	if stats["min"].(float64) != 2 || stats["max"].(float64) != 6 {
		t.Fatalf("min/max = %v/%v", stats["min"], stats["max"])
	}
	// population variance of {2,4,6} is 8/3
	wantVar := 8.0 / 3.0
	if got := stats["variance"].(float64); math.Abs(got-wantVar) > 1e-9 {
		t.Fatalf("variance = %v, want %v", got, wantVar)
	}
	if got := stats["std_dev"].(float64); math.Abs(got-math.Sqrt(wantVar)) > 1e-9 {
		t.Fatalf("std_dev = %v", got)
	}
}

func TestStatisticalAnalysisNoNumericData(t *testing.T) {
	result := Analyze(map[string]any{"label": "x"}, map[string]any{"analysis_type": "statistical"})
	if result["error"] != "No numeric data found for statistical analysis" {
		t.Fatalf("unexpected result %v", result)
	}
}

func TestBasicAnalysis(t *testing.T) {
	result := Analyze(map[string]any{"a": 1, "b": "two"}, nil)
	if result["total_fields"].(int) != 2 {
		t.Fatalf("total_fields = %v", result["total_fields"])
	}
	summary, ok := result["numeric_summary"].(map[string]any)
	if !ok {
		t.Fatalf("missing numeric_summary in %v", result)
	}
	if summary["count"].(int) != 1 || summary["sum"].(float64) != 1 {
		t.Fatalf("numeric_summary = %v", summary)
	}
}

func TestTransformNormalize(t *testing.T) {
	payload := map[string]any{"low": 10, "high": 30, "name": "set"}
	result := Transform(payload, map[string]any{"transformation_type": "normalize"})
	if result["status"] != "transformed" {
		t.Fatalf("status = %v", result["status"])
	}
	data := result["data"].(map[string]any)
	if data["low"].(float64) != 0 || data["high"].(float64) != 1 {
		t.Fatalf("normalized = %v", data)
	}
	if data["name"].(string) != "set" {
		t.Fatal("non-numeric fields must pass through")
	}
}

func TestTransformAggregate(t *testing.T) {
	result := Transform(map[string]any{"a": 3, "b": 5, "tag": "t"}, map[string]any{"transformation_type": "aggregate"})
	data := result["data"].(map[string]any)
	aggregate := data["aggregate"].(map[string]any)
	if aggregate["count"].(int) != 2 || aggregate["sum"].(float64) != 8 || aggregate["average"].(float64) != 4 {
		t.Fatalf("aggregate = %v", aggregate)
	}
	if data["tag"].(string) != "t" {
		t.Fatal("non-numeric fields must survive aggregation")
	}
}

func TestTransformFilter(t *testing.T) {
	metadata := map[string]any{
		"transformation_type": "filter",
		"filter_criteria":     map[string]any{"status": "active"},
	}
	result := Transform(map[string]any{"status": "inactive", "name": "x"}, metadata)
	data := result["data"].(map[string]any)
	if _, kept := data["status"]; kept {
		t.Fatalf("mismatching field should be dropped, data = %v", data)
	}
	if data["name"].(string) != "x" {
		t.Fatal("unconstrained fields must be kept")
	}
}

func TestComputeBasic(t *testing.T) {
	result := Compute(map[string]any{"a": 4, "b": 16}, map[string]any{"computation_type": "basic"})
	if result["status"] != "computed" {
		t.Fatalf("status = %v", result["status"])
	}
	if result["sum"].(float64) != 20 || result["numeric_fields"].(int) != 2 {
		t.Fatalf("result = %v", result)
	}
}

func TestComputeMathematical(t *testing.T) {
	result := Compute(map[string]any{"a": 2.0, "b": 3.0}, map[string]any{"computation_type": "mathematical"})
	if result["sum"].(float64) != 5 || result["product"].(float64) != 6 {
		t.Fatalf("result = %v", result)
	}
}

func TestComputeOptimization(t *testing.T) {
	result := Compute(map[string]any{"a": 2, "b": 9, "c": 4}, map[string]any{"computation_type": "optimization"})
	if result["optimal_field"].(string) != "b" || result["optimal_value"].(float64) != 9 {
		t.Fatalf("result = %v", result)
	}
}

func TestIntegrate(t *testing.T) {
	result := Integrate(map[string]any{"x": 1}, nil)
	if result["status"] != "integrated" || result["integration_type"] != "api" {
		t.Fatalf("result = %v", result)
	}
	if result["data_sent"].(int) <= 0 {
		t.Fatalf("data_sent = %v", result["data_sent"])
	}
}

func TestProcessUnsupportedKindPassesThrough(t *testing.T) {
	result, err := Process(task.Kind("alchemy"), map[string]any{"x": 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["status"] != "processed" {
		t.Fatalf("result = %v", result)
	}
}

package main

import "testing"

func TestStageLabel(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"validation":          "Validation",
		"data_analysis":       "Data Analysis",
		"data_transformation": "Data Transformation",
	}
	for input, want := range cases {
		if got := stageLabel(input); got != want {
			t.Errorf("stageLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatStages(t *testing.T) {
	if got := formatStages(nil); got != "(none)" {
		t.Fatalf("empty stages: %q", got)
	}
	got := formatStages([]string{"validation", "processing"})
	if got != "Validation > Processing" {
		t.Fatalf("unexpected stage chain: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 48); got != "short" {
		t.Fatalf("short value changed: %q", got)
	}
	long := "a task description that keeps going well past the limit"
	got := truncate(long, 20)
	if len(got) != 20 || got[17:] != "..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestColorizeStatus(t *testing.T) {
	if got := colorizeStatus("completed", false); got != "completed" {
		t.Fatalf("expected plain status, got %q", got)
	}
	got := colorizeStatus("failed", true)
	if got == "failed" {
		t.Fatal("expected ANSI color on failed status")
	}
}

package api

import (
	"testing"
	"time"

	"serfdom/internal/ledger"
	"serfdom/internal/metrics"
	"serfdom/internal/task"
)

func TestFromResult(t *testing.T) {
	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &task.Result{
		RequestID:       "req-1",
		Status:          task.StatusCompleted,
		ProcessingTime:  2500 * time.Millisecond,
		StagesCompleted: []string{"validation", "preprocessing"},
		Warnings:        []string{"w"},
		CompletedAt:     completed,
	}
	view := FromResult(result)
	if view.RequestID != "req-1" || view.Status != "completed" {
		t.Fatalf("view = %+v", view)
	}
	if view.ProcessingTimeSeconds != 2.5 {
		t.Fatalf("processing seconds = %v", view.ProcessingTimeSeconds)
	}
	if view.CompletedAt == "" {
		t.Fatal("completedAt missing")
	}

	// view holds copies of the slices
	view.StagesCompleted[0] = "mutated"
	if result.StagesCompleted[0] != "validation" {
		t.Fatal("conversion must not alias result slices")
	}
}

func TestFromDelegation(t *testing.T) {
	record := &ledger.Delegation{
		ID:                  "del-1",
		AgentType:           "serf",
		Task:                "plow",
		Priority:            4,
		DelegatedBy:         "King AI Overseer",
		Status:              "pending",
		EstimatedCompletion: "5 minutes",
		CreatedAt:           time.Now().UTC(),
	}
	view := FromDelegation(record)
	if view.DelegationID != "del-1" || view.EstimatedCompletion != "5 minutes" {
		t.Fatalf("view = %+v", view)
	}
	if view.CreatedAt == "" {
		t.Fatal("createdAt missing")
	}
}

func TestFromMetrics(t *testing.T) {
	view := FromMetrics(metrics.Snapshot{
		TotalProcessed:        10,
		TotalFailed:           2,
		AverageProcessingTime: 1500 * time.Millisecond,
		QueueLength:           3,
		SuccessRate:           0.8,
	})
	if view.TotalProcessed != 10 || view.SuccessRate != 0.8 {
		t.Fatalf("view = %+v", view)
	}
	if view.AverageProcessingTimeSeconds != 1.5 {
		t.Fatalf("average = %v", view.AverageProcessingTimeSeconds)
	}
}

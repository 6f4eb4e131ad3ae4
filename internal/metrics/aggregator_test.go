package metrics

import (
	"math"
	"sync"
	"testing"
	"time"

	"serfdom/internal/task"
)

func TestSuccessRateWithNoHistory(t *testing.T) {
	agg := NewAggregator()
	if got := agg.SuccessRate(); got != 1.0 {
		t.Fatalf("success rate = %v, want 1.0", got)
	}
}

func TestRecordIncrementalAverage(t *testing.T) {
	agg := NewAggregator()
	durations := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}
	for _, d := range durations {
		agg.Record(&task.Result{Status: task.StatusCompleted, ProcessingTime: d}, 0)
	}
	snap := agg.Snapshot()
	if snap.TotalProcessed != 3 {
		t.Fatalf("total processed = %d", snap.TotalProcessed)
	}
	if got := snap.AverageProcessingTime.Seconds(); math.Abs(got-4.0) > 1e-9 {
		t.Fatalf("average = %vs, want 4s", got)
	}
}

func TestRecordCountsFailures(t *testing.T) {
	agg := NewAggregator()
	agg.Record(&task.Result{Status: task.StatusCompleted, ProcessingTime: time.Second}, 0)
	agg.Record(&task.Result{Status: task.StatusFailed, ProcessingTime: time.Second}, 2)
	snap := agg.Snapshot()
	if snap.TotalFailed != 1 {
		t.Fatalf("total failed = %d", snap.TotalFailed)
	}
	if snap.SuccessRate != 0.5 {
		t.Fatalf("success rate = %v", snap.SuccessRate)
	}
	if snap.QueueLength != 2 {
		t.Fatalf("queue length = %d", snap.QueueLength)
	}
}

func TestRecordConcurrent(t *testing.T) {
	agg := NewAggregator()
	const workers = 16
	const perWorker = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				agg.Record(&task.Result{Status: task.StatusCompleted, ProcessingTime: time.Millisecond}, 0)
			}
		}()
	}
	wg.Wait()
	if got := agg.Snapshot().TotalProcessed; got != workers*perWorker {
		t.Fatalf("total processed = %d, want %d", got, workers*perWorker)
	}
}

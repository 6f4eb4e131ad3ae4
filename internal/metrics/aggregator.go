// Package metrics keeps process-wide workflow counters. All state lives in
// memory; restarting the daemon resets every aggregate.
package metrics

import (
	"sync"
	"time"

	"serfdom/internal/task"
)

// Snapshot is a point-in-time copy of the aggregates.
type Snapshot struct {
	TotalProcessed        int64         `json:"total_processed"`
	TotalFailed           int64         `json:"total_failed"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	QueueLength           int           `json:"queue_length"`
	SuccessRate           float64       `json:"success_rate"`
}

// Aggregator accumulates workflow outcomes from concurrent runs.
type Aggregator struct {
	mu             sync.Mutex
	totalProcessed int64
	totalFailed    int64
	averageSeconds float64
	queueLength    int
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record folds one terminal result into the aggregates. The processing-time
// average updates incrementally so no per-run history is retained.
// activeCount is the number of requests still in flight after this one
// finished.
func (a *Aggregator) Record(result *task.Result, activeCount int) {
	if result == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalProcessed++
	if result.Failed() {
		a.totalFailed++
	}
	seconds := result.ProcessingTime.Seconds()
	n := float64(a.totalProcessed)
	a.averageSeconds = (a.averageSeconds*(n-1) + seconds) / n
	a.queueLength = activeCount
}

// SuccessRate returns the fraction of runs that did not fail. With no runs
// recorded yet it reports 1.0.
func (a *Aggregator) SuccessRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.successRateLocked()
}

func (a *Aggregator) successRateLocked() float64 {
	if a.totalProcessed == 0 {
		return 1.0
	}
	return float64(a.totalProcessed-a.totalFailed) / float64(a.totalProcessed)
}

// Snapshot returns a copy of the current aggregates.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		TotalProcessed:        a.totalProcessed,
		TotalFailed:           a.totalFailed,
		AverageProcessingTime: time.Duration(a.averageSeconds * float64(time.Second)),
		QueueLength:           a.queueLength,
		SuccessRate:           a.successRateLocked(),
	}
}

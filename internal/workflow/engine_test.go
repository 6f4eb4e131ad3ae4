package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"serfdom/internal/config"
	"serfdom/internal/ledger"
	"serfdom/internal/logging"
	"serfdom/internal/task"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.DataDir = ""
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(cfg, store, logging.NewNop(), opts...)
}

func TestProcessRequestHappyPath(t *testing.T) {
	engine := newTestEngine(t)
	req := task.NewRequest("r1", task.KindComputation,
		map[string]any{"a": 4, "b": 16}, 3, "tester",
		map[string]any{"computation_type": "basic"})

	result := engine.ProcessRequest(context.Background(), req)
	if result.Status != task.StatusCompleted {
		t.Fatalf("status = %s, error = %q", result.Status, result.ErrorMessage)
	}
	want := PipelineStages()
	if len(result.StagesCompleted) != len(want) {
		t.Fatalf("stages = %v", result.StagesCompleted)
	}
	for i, stage := range want {
		if result.StagesCompleted[i] != stage {
			t.Fatalf("stage[%d] = %s, want %s", i, result.StagesCompleted[i], stage)
		}
	}
	if result.ProcessingTime < 0 {
		t.Fatalf("processing time = %v", result.ProcessingTime)
	}

	inner, ok := result.Data["results"].(map[string]any)
	if !ok {
		t.Fatalf("missing wrapped results in %v", result.Data)
	}
	if inner["sum"].(float64) != 20 {
		t.Fatalf("sum = %v", inner["sum"])
	}
	metadata := result.Data["metadata"].(map[string]any)
	if metadata["data_quality_score"].(float64) != 0.8 {
		t.Fatalf("quality score = %v", metadata["data_quality_score"])
	}
}

func TestProcessRequestEmptyPayloadFailsAtValidation(t *testing.T) {
	engine := newTestEngine(t)
	req := task.NewRequest("r2", task.KindComputation, nil, 3, "tester", nil)

	result := engine.ProcessRequest(context.Background(), req)
	if result.Status != task.StatusFailed {
		t.Fatalf("status = %s", result.Status)
	}
	if !strings.HasPrefix(result.ErrorMessage, "Validation failed:") {
		t.Fatalf("error = %q", result.ErrorMessage)
	}
	if len(result.StagesCompleted) != 1 || result.StagesCompleted[0] != StageValidation {
		t.Fatalf("stages = %v", result.StagesCompleted)
	}
}

func TestProcessRequestLargePayloadWarnsButCompletes(t *testing.T) {
	engine := newTestEngine(t)
	big := strings.Repeat("x", (1<<20)+512)
	req := task.NewRequest("r3", task.KindComputation, map[string]any{"blob": big, "n": 1}, 3, "tester", nil)

	result := engine.ProcessRequest(context.Background(), req)
	if result.Status != task.StatusCompleted {
		t.Fatalf("status = %s, error = %q", result.Status, result.ErrorMessage)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Large payload") {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", result.Warnings)
	}
}

type failingNotifier struct{}

func (failingNotifier) NotifyTaskCompleted(context.Context, string, string, time.Duration) error {
	return errors.New("ntfy unreachable")
}
func (failingNotifier) NotifyTaskFailed(context.Context, string, string) error {
	return errors.New("ntfy unreachable")
}
func (failingNotifier) NotifyDelegationIssued(context.Context, string, string, string) error {
	return errors.New("ntfy unreachable")
}
func (failingNotifier) TestNotification(context.Context) error { return errors.New("ntfy unreachable") }

func TestNotificationFailureDowngradesToWarning(t *testing.T) {
	engine := newTestEngine(t, WithNotifier(failingNotifier{}))
	req := task.NewRequest("r4", task.KindComputation, map[string]any{"a": 1}, 3, "tester", nil)

	result := engine.ProcessRequest(context.Background(), req)
	if result.Status != task.StatusCompleted {
		t.Fatalf("status = %s, error = %q", result.Status, result.ErrorMessage)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Notification error") {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", result.Warnings)
	}
	if result.StagesCompleted[len(result.StagesCompleted)-1] != StageNotification {
		t.Fatalf("stages = %v", result.StagesCompleted)
	}
}

func TestProcessRequestCancelledContext(t *testing.T) {
	engine := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := task.NewRequest("r5", task.KindComputation, map[string]any{"a": 1}, 3, "tester", nil)

	result := engine.ProcessRequest(ctx, req)
	if result.Status != task.StatusFailed {
		t.Fatalf("status = %s", result.Status)
	}
	if !strings.Contains(result.ErrorMessage, "cancelled") {
		t.Fatalf("error = %q", result.ErrorMessage)
	}
	if len(result.StagesCompleted) != 0 {
		t.Fatalf("stages = %v", result.StagesCompleted)
	}
}

func TestStatusReportsLedgerAfterCompletion(t *testing.T) {
	engine := newTestEngine(t)
	req := task.NewRequest("r6", task.KindComputation, map[string]any{"a": 1}, 3, "tester", nil)
	engine.ProcessRequest(context.Background(), req)

	view, err := engine.Status(context.Background(), "r6")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Status != task.StatusCompleted {
		t.Fatalf("status = %s", view.Status)
	}
	if view.Result == nil {
		t.Fatal("expected stored result")
	}
}

func TestStatusUnknownRequest(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.Status(context.Background(), "nope"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMetricsReflectOutcomes(t *testing.T) {
	engine := newTestEngine(t)
	ok := task.NewRequest("m1", task.KindComputation, map[string]any{"a": 1}, 3, "tester", nil)
	bad := task.NewRequest("m2", task.KindComputation, nil, 3, "tester", nil)
	engine.ProcessRequest(context.Background(), ok)
	engine.ProcessRequest(context.Background(), bad)

	snap := engine.Metrics()
	if snap.TotalProcessed != 2 || snap.TotalFailed != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.SuccessRate != 0.5 {
		t.Fatalf("success rate = %v", snap.SuccessRate)
	}
	if snap.QueueLength != 0 {
		t.Fatalf("queue length = %d", snap.QueueLength)
	}
}

func TestStatisticalAnalysisThroughPipeline(t *testing.T) {
	engine := newTestEngine(t)
	req := task.NewRequest("r7", task.KindAnalysis,
		map[string]any{"x": "2", "y": "4", "z": "6"}, 3, "tester",
		map[string]any{"analysis_type": "statistical"})

	result := engine.ProcessRequest(context.Background(), req)
	if result.Status != task.StatusCompleted {
		t.Fatalf("status = %s, error = %q", result.Status, result.ErrorMessage)
	}
	inner := result.Data["results"].(map[string]any)
	stats := inner["statistical_analysis"].(map[string]any)
	if stats["mean"].(float64) != 4 {
		t.Fatalf("mean = %v (string coercion in preprocessing missing?)", stats["mean"])
	}
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Publish(event Event) {
	r.events = append(r.events, event)
}

func TestEventSinkSeesLifecycle(t *testing.T) {
	sink := &recordingSink{}
	engine := newTestEngine(t, WithEvents(sink))
	req := task.NewRequest("r8", task.KindComputation, map[string]any{"a": 1}, 3, "tester", nil)
	engine.ProcessRequest(context.Background(), req)

	if len(sink.events) == 0 {
		t.Fatal("expected events")
	}
	if sink.events[0].Type != EventTaskStarted {
		t.Fatalf("first event = %s", sink.events[0].Type)
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventTaskCompleted {
		t.Fatalf("last event = %s", last.Type)
	}
}

func TestSummaryFormat(t *testing.T) {
	engine := newTestEngine(t)
	req := task.NewRequest("r9", task.KindComputation, map[string]any{"a": 1}, 3, "tester",
		map[string]any{"format": "summary"})

	result := engine.ProcessRequest(context.Background(), req)
	if result.Status != task.StatusCompleted {
		t.Fatalf("status = %s", result.Status)
	}
	if result.Data["summary"] != "Processing completed successfully" {
		t.Fatalf("data = %v", result.Data)
	}
	if _, ok := result.Data["result_count"]; !ok {
		t.Fatalf("missing result_count in %v", result.Data)
	}
}

// stallingNotifier parks NotifyTaskCompleted until released so a run can be
// observed while it is still in flight.
type stallingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n stallingNotifier) NotifyTaskCompleted(context.Context, string, string, time.Duration) error {
	close(n.entered)
	<-n.release
	return nil
}
func (n stallingNotifier) NotifyTaskFailed(context.Context, string, string) error { return nil }
func (n stallingNotifier) NotifyDelegationIssued(context.Context, string, string, string) error {
	return nil
}
func (n stallingNotifier) TestNotification(context.Context) error { return nil }

func TestStatusPollingDuringRun(t *testing.T) {
	notifier := stallingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	engine := newTestEngine(t, WithNotifier(notifier))
	req := task.NewRequest("r10", task.KindComputation, map[string]any{"a": 1}, 3, "tester", nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = engine.Status(context.Background(), "r10")
			engine.QueueStatus()
		}
	}()

	done := make(chan *task.Result, 1)
	go func() { done <- engine.ProcessRequest(context.Background(), req) }()

	<-notifier.entered
	view, err := engine.Status(context.Background(), "r10")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Status != task.StatusProcessing {
		t.Fatalf("status = %s", view.Status)
	}
	if view.CurrentStage != StageNotification {
		t.Fatalf("current stage = %s", view.CurrentStage)
	}
	if len(view.StagesCompleted) != 5 || view.StagesCompleted[4] != StageStorage {
		t.Fatalf("stages = %v", view.StagesCompleted)
	}
	if queue := engine.QueueStatus(); queue["r10"] != StageNotification {
		t.Fatalf("queue = %v", queue)
	}

	close(notifier.release)
	result := <-done
	close(stop)
	wg.Wait()
	if result.Status != task.StatusCompleted {
		t.Fatalf("status = %s, error = %q", result.Status, result.ErrorMessage)
	}
}

func TestQualityScore(t *testing.T) {
	if got := qualityScore(0); got != 0.8 {
		t.Fatalf("score with no warnings = %v", got)
	}
	if got := qualityScore(1); got < 0.69 || got > 0.71 {
		t.Fatalf("score with one warning = %v", got)
	}
	if got := qualityScore(9); got != 0 {
		t.Fatalf("score with nine warnings = %v", got)
	}
}

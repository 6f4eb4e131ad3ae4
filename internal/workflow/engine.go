package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"serfdom/internal/config"
	"serfdom/internal/ledger"
	"serfdom/internal/logging"
	"serfdom/internal/metrics"
	"serfdom/internal/notifications"
	"serfdom/internal/task"
)

// Engine runs requests through the staged pipeline and records outcomes in
// the ledger and metrics aggregator.
type Engine struct {
	cfg      *config.Config
	store    *ledger.Store
	logger   *slog.Logger
	notifier notifications.Service
	events   EventSink
	metrics  *metrics.Aggregator

	mu     sync.RWMutex
	active map[string]*State
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) Option {
	return func(e *Engine) {
		if notifier != nil {
			e.notifier = notifier
		}
	}
}

// WithEvents attaches an event sink for pipeline progress updates.
func WithEvents(sink EventSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.events = sink
		}
	}
}

// NewEngine constructs a workflow engine.
func NewEngine(cfg *config.Config, store *ledger.Store, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		notifier: notifications.NewService(cfg),
		metrics:  metrics.NewAggregator(),
		active:   make(map[string]*State),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

type pipelineStage struct {
	name string
	run  func(context.Context, *State)
}

func (e *Engine) pipeline() []pipelineStage {
	return []pipelineStage{
		{StageValidation, e.validateInput},
		{StagePreprocessing, e.preprocessData},
		{StageProcessing, e.processData},
		{StagePostprocessing, e.postprocessData},
		{StageStorage, e.storeResults},
		{StageNotification, e.notifyCompletion},
	}
}

// ProcessRequest drives one request through the full pipeline and returns its
// terminal result. Safe for concurrent use; independent requests share only
// the active registry, metrics, and ledger.
func (e *Engine) ProcessRequest(ctx context.Context, req *task.Request) (result *task.Result) {
	if req == nil {
		return &task.Result{Status: task.StatusFailed, ErrorMessage: "nil request"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	state := newState(req)
	e.register(state)
	defer e.deregister(req.ID)

	logger := e.logger.With(logging.String(logging.FieldRequestID, req.ID))

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("panic during request processing", logging.Any("panic", recovered))
			state.Err = fmt.Errorf("internal error: %v", recovered)
			result = e.finalize(ctx, state)
		}
	}()

	logger.Info("request accepted",
		logging.String("kind", string(req.Kind)),
		logging.Int("priority", req.Priority),
	)
	e.publish(EventTaskStarted, req.ID, "", map[string]any{"kind": string(req.Kind)})

	for _, stage := range e.pipeline() {
		if err := ctx.Err(); err != nil {
			state.Err = fmt.Errorf("request cancelled: %w", err)
			break
		}
		state.setStage(stage.name)
		stageCtx := logging.WithStage(ctx, stage.name)
		stage.run(stageCtx, state)
		if state.Err != nil {
			break
		}
		e.publish(EventStageCompleted, req.ID, stage.name, nil)
	}

	if state.Err != nil {
		e.handleError(ctx, state)
	}

	return e.finalize(ctx, state)
}

// finalize builds the terminal result, persists it, and folds it into the
// aggregates.
func (e *Engine) finalize(ctx context.Context, state *State) *task.Result {
	req := state.Request
	status := task.StatusCompleted
	errorMessage := ""
	if state.Err != nil {
		status = task.StatusFailed
		errorMessage = state.Err.Error()
	}

	result := &task.Result{
		RequestID:       req.ID,
		Status:          status,
		Data:            state.ProcessingResults,
		ProcessingTime:  time.Since(state.StartedAt),
		StagesCompleted: state.stagesSnapshot(),
		ErrorMessage:    errorMessage,
		Warnings:        append([]string(nil), state.Warnings...),
		CompletedAt:     time.Now().UTC(),
	}

	if e.store != nil {
		if err := e.store.SaveResult(ctx, result); err != nil {
			e.logger.Warn("persist result failed",
				logging.String(logging.FieldRequestID, req.ID),
				logging.Error(err),
			)
		}
	}

	e.metrics.Record(result, e.ActiveCount()-1)

	logger := e.logger.With(logging.String(logging.FieldRequestID, req.ID))
	if result.Failed() {
		logger.Error("request failed",
			logging.String("error", result.ErrorMessage),
			logging.Duration("processing_time", result.ProcessingTime),
		)
		e.publish(EventTaskFailed, req.ID, state.stage(), map[string]any{"error": result.ErrorMessage})
	} else {
		logger.Info("request completed",
			logging.Duration("processing_time", result.ProcessingTime),
			logging.Int("warnings", len(result.Warnings)),
		)
		e.publish(EventTaskCompleted, req.ID, "", map[string]any{
			"processing_time_seconds": result.ProcessingTime.Seconds(),
		})
	}
	return result
}

func (e *Engine) register(state *State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// Duplicate in-flight ids race; the newest state wins the registry slot
	// and the ledger upsert means the last completion wins persistence.
	e.active[state.Request.ID] = state
}

func (e *Engine) deregister(requestID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, requestID)
}

// ActiveCount reports the number of in-flight requests.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.active)
}

// StatusView is a point-in-time view of one request.
type StatusView struct {
	RequestID       string
	Status          task.Status
	CurrentStage    string
	StagesCompleted []string
	Result          *task.Result
}

// Status reports the current state of a request: processing when in flight,
// the stored result when finished, ledger.ErrNotFound otherwise.
func (e *Engine) Status(ctx context.Context, requestID string) (*StatusView, error) {
	e.mu.RLock()
	state, inFlight := e.active[requestID]
	e.mu.RUnlock()
	if inFlight {
		return &StatusView{
			RequestID:       requestID,
			Status:          task.StatusProcessing,
			CurrentStage:    state.stage(),
			StagesCompleted: state.stagesSnapshot(),
		}, nil
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: result %q", ledger.ErrNotFound, requestID)
	}
	result, err := e.store.GetResult(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		RequestID:       requestID,
		Status:          result.Status,
		StagesCompleted: result.StagesCompleted,
		Result:          result,
	}, nil
}

// Metrics returns a snapshot of the aggregate counters with the live
// in-flight count.
func (e *Engine) Metrics() metrics.Snapshot {
	snap := e.metrics.Snapshot()
	snap.QueueLength = e.ActiveCount()
	return snap
}

// QueueStatus lists the ids of in-flight requests with their current stages.
func (e *Engine) QueueStatus() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.active))
	for id, state := range e.active {
		out[id] = state.stage()
	}
	return out
}

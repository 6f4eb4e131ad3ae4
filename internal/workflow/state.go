package workflow

import (
	"sync"
	"time"

	"serfdom/internal/task"
)

// Stage names in pipeline order. Every stage that executes appends its name
// to the state's stage log, whether it succeeded or set the error.
const (
	StageValidation     = "validation"
	StagePreprocessing  = "preprocessing"
	StageProcessing     = "processing"
	StagePostprocessing = "postprocessing"
	StageStorage        = "storage"
	StageNotification   = "notification"
)

// PipelineStages returns the stage names in execution order.
func PipelineStages() []string {
	return []string{
		StageValidation,
		StagePreprocessing,
		StageProcessing,
		StagePostprocessing,
		StageStorage,
		StageNotification,
	}
}

// State is the mutable record one request carries through the pipeline.
// Most fields are touched only by the pipeline goroutine, but the stage
// progress is also read by status queries while the run is in flight, so
// it sits behind its own mutex and is accessed through the stage methods.
type State struct {
	Request         *task.Request
	OriginalPayload map[string]any
	Payload         map[string]any

	ValidationResults   *task.ValidationResult
	ProcessingResults   map[string]any
	StorageResults      map[string]any
	NotificationResults map[string]any

	Err       error
	Warnings  []string
	StartedAt time.Time

	mu              sync.Mutex
	currentStage    string
	stagesCompleted []string
}

func newState(req *task.Request) *State {
	return &State{
		Request:         req,
		OriginalPayload: copyPayload(req.Payload),
		Payload:         copyPayload(req.Payload),
		StartedAt:       time.Now().UTC(),
	}
}

func (s *State) setStage(name string) {
	s.mu.Lock()
	s.currentStage = name
	s.mu.Unlock()
}

func (s *State) stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStage
}

func (s *State) completeStage(name string) {
	s.mu.Lock()
	s.stagesCompleted = append(s.stagesCompleted, name)
	s.mu.Unlock()
}

func (s *State) addWarning(warning string) {
	if warning != "" {
		s.Warnings = append(s.Warnings, warning)
	}
}

// stagesSnapshot returns a copy safe to hand across goroutines.
func (s *State) stagesSnapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.stagesCompleted))
	copy(out, s.stagesCompleted)
	return out
}

func copyPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	return out
}

// qualityScore rates a run's output. Starts at 0.8, loses 0.1 per warning,
// clamps to [0,1]. Failed runs never reach postprocessing, so there is no
// error case to score.
func qualityScore(warnings int) float64 {
	score := 0.8 - 0.1*float64(warnings)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

package workflow

import "time"

// Event types published over the event sink.
const (
	EventTaskStarted    = "task_started"
	EventStageCompleted = "stage_completed"
	EventTaskCompleted  = "task_completed"
	EventTaskFailed     = "task_failed"
)

// Event is one pipeline progress notification.
type Event struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id"`
	Stage     string         `json:"stage,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventSink receives pipeline events. Implementations must be safe for
// concurrent use and must not block; slow consumers drop events, they do not
// stall the pipeline.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) {}

func (e *Engine) publish(eventType, requestID, stage string, detail map[string]any) {
	if e.events == nil {
		return
	}
	e.events.Publish(Event{
		Type:      eventType,
		RequestID: requestID,
		Stage:     stage,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}

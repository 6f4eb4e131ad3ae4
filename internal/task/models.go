package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a processing request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Request is one unit of work submitted to the workflow engine. It is
// immutable after creation; note that Payload is aliased by the caller, the
// engine works on a defensive copy taken at submission.
type Request struct {
	ID        string
	Kind      Kind
	Payload   map[string]any
	Priority  int
	Requester string
	CreatedAt time.Time
	Deadline  *time.Time
	Metadata  map[string]any
}

// NewRequest builds a Request with a generated id and clamped priority.
// An empty id is replaced with a fresh UUID; priorities outside 1-5 are
// clamped to the nearest bound.
func NewRequest(id string, kind Kind, payload map[string]any, priority int, requester string, metadata map[string]any) *Request {
	if strings.TrimSpace(id) == "" {
		id = "req_" + uuid.NewString()
	}
	if priority < 1 {
		priority = 1
	}
	if priority > 5 {
		priority = 5
	}
	if requester == "" {
		requester = "api"
	}
	return &Request{
		ID:        id,
		Kind:      kind,
		Payload:   payload,
		Priority:  priority,
		Requester: requester,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// MetadataString returns the string metadata value for key, or fallback.
func (r *Request) MetadataString(key, fallback string) string {
	if r == nil || r.Metadata == nil {
		return fallback
	}
	if value, ok := r.Metadata[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// Result is the terminal record of one workflow run. Created exactly once per
// run and immutable thereafter.
type Result struct {
	RequestID       string
	Status          Status
	Data            map[string]any
	ProcessingTime  time.Duration
	StagesCompleted []string
	ErrorMessage    string
	Warnings        []string
	CompletedAt     time.Time
}

// Failed reports whether the run ended in failure.
func (r *Result) Failed() bool {
	return r != nil && r.Status == StatusFailed
}

// ValidationResult captures the outcome of request validation.
type ValidationResult struct {
	IsValid          bool
	Errors           []string
	Warnings         []string
	SanitizedPayload map[string]any
}

package api

// Request bodies accepted by the daemon API. Field names follow the wire
// format of the processing engine, not the camelCase view types.

// ProcessRequest submits a task to the workflow engine. When Async is set
// the daemon responds immediately and processes in the background.
type ProcessRequest struct {
	RequestID   string         `json:"request_id,omitempty"`
	RequestType string         `json:"request_type"`
	Payload     map[string]any `json:"payload,omitempty"`
	Priority    int            `json:"priority,omitempty"`
	Requester   string         `json:"requester,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Async       bool           `json:"async,omitempty"`
}

// DelegateRequest records a delegation through the overseer.
type DelegateRequest struct {
	AgentType       string         `json:"agent_type,omitempty"`
	TaskDescription string         `json:"task_description"`
	Priority        int            `json:"priority,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
}

// StrategizeRequest asks the overseer for a strategic plan.
type StrategizeRequest struct {
	Objective string         `json:"objective"`
	Context   map[string]any `json:"context,omitempty"`
}

// InteractRequest routes a user message to the serf agent.
type InteractRequest struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

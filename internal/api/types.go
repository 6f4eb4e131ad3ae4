package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TaskView describes one workflow result in a transport-friendly format.
type TaskView struct {
	RequestID             string         `json:"requestId"`
	Status                string         `json:"status"`
	CurrentStage          string         `json:"currentStage,omitempty"`
	StagesCompleted       []string       `json:"stagesCompleted"`
	ProcessingTimeSeconds float64        `json:"processingTimeSeconds"`
	ErrorMessage          string         `json:"errorMessage,omitempty"`
	Warnings              []string       `json:"warnings,omitempty"`
	Data                  map[string]any `json:"data,omitempty"`
	CompletedAt           string         `json:"completedAt,omitempty"`
}

// DelegationView describes one delegation record.
type DelegationView struct {
	DelegationID        string         `json:"delegationId"`
	AgentType           string         `json:"agentType"`
	Task                string         `json:"task"`
	Priority            int            `json:"priority"`
	Context             map[string]any `json:"context,omitempty"`
	DelegatedBy         string         `json:"delegatedBy"`
	Status              string         `json:"status"`
	EstimatedCompletion string         `json:"estimatedCompletion"`
	CreatedAt           string         `json:"createdAt,omitempty"`
}

// MetricsView summarizes engine aggregates.
type MetricsView struct {
	TotalProcessed               int64   `json:"totalProcessed"`
	TotalFailed                  int64   `json:"totalFailed"`
	SuccessRate                  float64 `json:"successRate"`
	AverageProcessingTimeSeconds float64 `json:"averageProcessingTimeSeconds"`
	QueueLength                  int     `json:"queueLength"`
}

// QueueStatusView lists in-flight requests keyed by request id with their
// current stage.
type QueueStatusView struct {
	Active map[string]string `json:"active"`
	Length int               `json:"length"`
}

// StatusSnapshot aggregates daemon runtime information for API consumers.
type StatusSnapshot struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	LedgerPath   string          `json:"ledgerPath,omitempty"`
	LockFilePath string          `json:"lockFilePath"`
	LLMReady     bool            `json:"llmReady"`
	Metrics      MetricsView     `json:"metrics"`
	Queue        QueueStatusView `json:"queue"`
}

// TaskListResponse wraps a collection of task views.
type TaskListResponse struct {
	Tasks []TaskView `json:"tasks"`
}

// DelegationListResponse wraps delegation history.
type DelegationListResponse struct {
	Delegations []DelegationView `json:"delegations"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

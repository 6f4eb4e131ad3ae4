// Package serf implements the user-facing interaction agent. It sits at the
// bottom of the hierarchy: it answers users directly, requests backend
// processing when it needs data, and escalates to the overseer when a matter
// exceeds its station.
package serf

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"serfdom/internal/logging"
	"serfdom/internal/services/llm"
)

// ModelClient is the slice of the LLM client the agent needs.
type ModelClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Session tracks one user's interaction context across requests.
type Session struct {
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	InteractionCount int       `json:"interaction_count"`
	Mood             string    `json:"mood"`
	LastInteraction  time.Time `json:"last_interaction"`
}

// DelegationRequest describes backend processing the agent needs to answer a
// user.
type DelegationRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// Response is the agent's structured reply to one interaction.
type Response struct {
	Message                string             `json:"message"`
	Actions                []string           `json:"actions"`
	RequiresDelegation     bool               `json:"requires_delegation"`
	DelegationRequest      *DelegationRequest `json:"delegation_request,omitempty"`
	RequiresEscalation     bool               `json:"requires_escalation"`
	EscalationReason       string             `json:"escalation_reason,omitempty"`
	SatisfactionPrediction float64            `json:"satisfaction_prediction"`
	FollowUpNeeded         bool               `json:"follow_up_needed"`
}

// Agent handles user interactions with per-user session tracking.
type Agent struct {
	model  ModelClient
	logger *slog.Logger

	mu                sync.Mutex
	sessions          map[string]*Session
	totalInteractions int64
	satisfactionSum   float64
}

// New constructs an interaction agent.
func New(model ModelClient, logger *slog.Logger) *Agent {
	return &Agent{
		model:    model,
		logger:   logging.NewComponentLogger(logger, "serf"),
		sessions: make(map[string]*Session),
	}
}

const interactionSystemPrompt = `You are the Serf Frontend Agent of a hierarchical multi-agent system. You serve users directly: be empathetic, helpful, and engaging. You do not delegate downward; you request backend processing when you need data and escalate to the King AI Overseer when a matter exceeds your authority. Respond with JSON only, using this shape:
{
  "user_message": "your response to the user",
  "requires_backend_data": true or false,
  "backend_request": {"type": "data type needed", "description": "what you need", "priority": 1-5},
  "requires_escalation": true or false,
  "escalation_reason": "why escalation is needed",
  "suggested_actions": ["action descriptions"],
  "satisfaction_prediction": 0.0-1.0,
  "follow_up_needed": true or false
}`

// modelResponse matches the JSON shape the prompt requests.
type modelResponse struct {
	UserMessage            string             `json:"user_message"`
	RequiresBackendData    bool               `json:"requires_backend_data"`
	BackendRequest         *DelegationRequest `json:"backend_request"`
	RequiresEscalation     bool               `json:"requires_escalation"`
	EscalationReason       string             `json:"escalation_reason"`
	SuggestedActions       []string           `json:"suggested_actions"`
	SatisfactionPrediction *float64           `json:"satisfaction_prediction"`
	FollowUpNeeded         bool               `json:"follow_up_needed"`
}

// HandleInteraction answers one user message. Malformed model output never
// fails the interaction: the raw model text becomes the reply with a
// degraded satisfaction prediction.
func (a *Agent) HandleInteraction(ctx context.Context, userID, sessionID, userInput string) (*Response, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, fmt.Errorf("serf: user input required")
	}
	if a.model == nil {
		return nil, fmt.Errorf("serf: no model configured")
	}

	session := a.session(userID, sessionID)
	userPrompt := fmt.Sprintf("USER INPUT: %q\n\nUSER CONTEXT:\n%s", userInput, a.formatSession(session))

	raw, err := a.model.CompleteJSON(ctx, interactionSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("serf interaction: %w", err)
	}

	response := parseInteraction(raw)
	a.recordInteraction(session, response)

	a.logger.Info("interaction handled",
		logging.String("user_id", userID),
		logging.Float64("satisfaction_prediction", response.SatisfactionPrediction),
		logging.Bool("requires_delegation", response.RequiresDelegation),
		logging.Bool("requires_escalation", response.RequiresEscalation),
	)
	return response, nil
}

// parseInteraction decodes the model payload, degrading to a plain-text
// response with satisfaction 0.7 when the payload is not valid JSON.
func parseInteraction(raw string) *Response {
	var decoded modelResponse
	if err := llm.DecodeLLMJSON(raw, &decoded); err != nil || strings.TrimSpace(decoded.UserMessage) == "" {
		return &Response{
			Message:                raw,
			SatisfactionPrediction: 0.7,
		}
	}

	satisfaction := 0.8
	if decoded.SatisfactionPrediction != nil {
		satisfaction = *decoded.SatisfactionPrediction
	}
	if satisfaction < 0 {
		satisfaction = 0
	}
	if satisfaction > 1 {
		satisfaction = 1
	}

	response := &Response{
		Message:                decoded.UserMessage,
		Actions:                decoded.SuggestedActions,
		RequiresDelegation:     decoded.RequiresBackendData,
		RequiresEscalation:     decoded.RequiresEscalation,
		EscalationReason:       decoded.EscalationReason,
		SatisfactionPrediction: satisfaction,
		FollowUpNeeded:         decoded.FollowUpNeeded,
	}
	if decoded.RequiresBackendData && decoded.BackendRequest != nil {
		response.DelegationRequest = decoded.BackendRequest
	}
	return response
}

func (a *Agent) session(userID, sessionID string) *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := userID + "/" + sessionID
	session, ok := a.sessions[key]
	if !ok {
		session = &Session{
			UserID:    userID,
			SessionID: sessionID,
			Mood:      "neutral",
		}
		a.sessions[key] = session
	}
	return session
}

// recordInteraction advances the session counters and tracks mood from the
// predicted satisfaction.
func (a *Agent) recordInteraction(session *Session, response *Response) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session.InteractionCount++
	session.LastInteraction = time.Now().UTC()
	switch {
	case response.SatisfactionPrediction > 0.8:
		session.Mood = "satisfied"
	case response.SatisfactionPrediction > 0.6:
		session.Mood = "neutral"
	default:
		session.Mood = "frustrated"
	}

	a.totalInteractions++
	a.satisfactionSum += response.SatisfactionPrediction
}

func (a *Agent) formatSession(session *Session) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	encoded, err := json.Marshal(session)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// SessionSnapshot returns a copy of the user's session, or nil when none
// exists yet.
func (a *Agent) SessionSnapshot(userID, sessionID string) *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, ok := a.sessions[userID+"/"+sessionID]
	if !ok {
		return nil
	}
	cp := *session
	return &cp
}

// PerformanceMetrics summarizes agent activity.
type PerformanceMetrics struct {
	TotalInteractions   int64   `json:"total_interactions"`
	ActiveSessions      int     `json:"active_sessions"`
	AverageSatisfaction float64 `json:"average_satisfaction"`
}

// Metrics returns interaction counters. Average satisfaction is 0 before the
// first interaction.
func (a *Agent) Metrics() PerformanceMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	average := 0.0
	if a.totalInteractions > 0 {
		average = a.satisfactionSum / float64(a.totalInteractions)
	}
	return PerformanceMetrics{
		TotalInteractions:   a.totalInteractions,
		ActiveSessions:      len(a.sessions),
		AverageSatisfaction: average,
	}
}

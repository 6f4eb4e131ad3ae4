package overseer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"serfdom/internal/logging"
	"serfdom/internal/services/llm"
)

// StrategicPlan is the structured output of a strategize call.
type StrategicPlan struct {
	Objective            string         `json:"objective"`
	Approach             string         `json:"approach"`
	ResourceRequirements map[string]any `json:"resource_requirements"`
	TaskBreakdown        []PlanTask     `json:"task_breakdown"`
	SuccessMetrics       []string       `json:"success_metrics"`
	Timeline             string         `json:"timeline"`
	RiskAssessment       map[string]any `json:"risk_assessment"`
}

// PlanTask is one delegable unit inside a strategic plan.
type PlanTask struct {
	AgentType      string   `json:"agent_type"`
	Description    string   `json:"description"`
	Priority       int      `json:"priority"`
	Dependencies   []string `json:"dependencies"`
	ExpectedOutput string   `json:"expected_output"`
}

// CoordinationPlan captures a multi-agent coordination round: the strategy
// plus the delegations it produced.
type CoordinationPlan struct {
	Objective      string          `json:"objective"`
	Strategy       *StrategicPlan  `json:"strategy"`
	CoordinationID string          `json:"coordination_id"`
	AgentsInvolved []string        `json:"agents_involved"`
	DelegatedTasks []DelegatedTask `json:"delegated_tasks"`
}

// DelegatedTask summarizes one delegation issued during coordination.
type DelegatedTask struct {
	DelegationID        string `json:"delegation_id"`
	AgentType           string `json:"agent_type"`
	Task                string `json:"task"`
	Priority            int    `json:"priority"`
	EstimatedCompletion string `json:"estimated_completion"`
}

const strategizeSystemPrompt = `You are the King AI Overseer, the supreme authority of a hierarchical multi-agent system. Develop a comprehensive strategy for the objective you are given. Respond with JSON only, using this shape:
{
  "objective": "restated objective",
  "approach": "overall strategy and methodology",
  "resource_requirements": {},
  "task_breakdown": [
    {"agent_type": "serf" or "peasant", "description": "task description", "priority": 1-5, "dependencies": [], "expected_output": ""}
  ],
  "success_metrics": ["metric descriptions"],
  "timeline": "estimated timeline",
  "risk_assessment": {}
}`

// ErrNoModel is returned when a planning call needs the LLM but none is
// configured.
var ErrNoModel = errors.New("overseer: no model configured")

// Strategize asks the model for a strategic plan. Malformed model output
// never fails the call: the raw response becomes the plan's approach and the
// timeline degrades to "To be determined".
func (o *Overseer) Strategize(ctx context.Context, objective string, planContext map[string]any) (*StrategicPlan, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, errors.New("overseer: objective required")
	}
	if o.model == nil {
		return nil, ErrNoModel
	}

	contextJSON := "{}"
	if len(planContext) > 0 {
		if encoded, err := json.Marshal(planContext); err == nil {
			contextJSON = string(encoded)
		}
	}
	userPrompt := fmt.Sprintf("Objective: %s\n\nContext: %s", objective, contextJSON)

	response, err := o.model.CompleteJSON(ctx, strategizeSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("strategize: %w", err)
	}

	plan := parsePlan(response, objective)
	id := o.storeStrategy(plan)
	o.logger.Info("strategic plan developed",
		logging.String("strategy_id", id),
		logging.Int("delegated_tasks", len(plan.TaskBreakdown)),
	)
	return plan, nil
}

// parsePlan decodes a model response into a plan, degrading to a minimal
// plan carrying the raw response when the payload is not valid JSON.
func parsePlan(response, objective string) *StrategicPlan {
	var plan StrategicPlan
	if err := llm.DecodeLLMJSON(response, &plan); err != nil {
		return &StrategicPlan{
			Objective:            objective,
			Approach:             response,
			ResourceRequirements: map[string]any{},
			TaskBreakdown:        nil,
			SuccessMetrics:       nil,
			Timeline:             "To be determined",
			RiskAssessment:       map[string]any{},
		}
	}
	if plan.Objective == "" {
		plan.Objective = objective
	}
	if plan.Timeline == "" {
		plan.Timeline = "Not specified"
	}
	if plan.ResourceRequirements == nil {
		plan.ResourceRequirements = map[string]any{}
	}
	if plan.RiskAssessment == nil {
		plan.RiskAssessment = map[string]any{}
	}
	return &plan
}

// Coordinate develops a strategy for a complex objective and delegates every
// task in its breakdown.
func (o *Overseer) Coordinate(ctx context.Context, objective string) (*CoordinationPlan, error) {
	strategy, err := o.Strategize(ctx, objective, nil)
	if err != nil {
		return nil, err
	}

	plan := &CoordinationPlan{
		Objective:      objective,
		Strategy:       strategy,
		CoordinationID: "coord_" + uuid.NewString(),
	}

	agentSet := map[string]struct{}{}
	for _, taskInfo := range strategy.TaskBreakdown {
		delegation, err := o.DelegateTask(ctx, taskInfo.AgentType, taskInfo.Description, taskInfo.Priority, map[string]any{
			"coordination_id": plan.CoordinationID,
			"dependencies":    taskInfo.Dependencies,
			"expected_output": taskInfo.ExpectedOutput,
		})
		if err != nil {
			return nil, err
		}
		plan.DelegatedTasks = append(plan.DelegatedTasks, DelegatedTask{
			DelegationID:        delegation.ID,
			AgentType:           delegation.AgentType,
			Task:                delegation.Task,
			Priority:            delegation.Priority,
			EstimatedCompletion: delegation.EstimatedCompletion,
		})
		agentSet[delegation.AgentType] = struct{}{}
	}
	for agent := range agentSet {
		plan.AgentsInvolved = append(plan.AgentsInvolved, agent)
	}

	o.logger.Info("multi-agent coordination initiated",
		logging.String("coordination_id", plan.CoordinationID),
		logging.Int("tasks_delegated", len(plan.DelegatedTasks)),
	)
	return plan, nil
}

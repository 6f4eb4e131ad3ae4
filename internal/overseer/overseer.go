// Package overseer implements the delegation ledger and strategic planning
// authority sitting above the workflow engine. Delegations are bookkeeping:
// they record intent and never drive pipeline execution.
package overseer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"serfdom/internal/ledger"
	"serfdom/internal/logging"
	"serfdom/internal/notifications"
)

// Authority is the issuing identity stamped on every delegation.
const Authority = "King AI Overseer"

// ModelClient is the slice of the LLM client the overseer needs.
type ModelClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Overseer issues delegations and develops strategic plans.
type Overseer struct {
	store    *ledger.Store
	model    ModelClient
	notifier notifications.Service
	logger   *slog.Logger

	mu         sync.Mutex
	strategies map[string]*StrategicPlan
}

// Option configures optional Overseer behavior.
type Option func(*Overseer)

// WithModel attaches an LLM client for strategize and coordinate calls.
func WithModel(model ModelClient) Option {
	return func(o *Overseer) {
		o.model = model
	}
}

// WithNotifier attaches a notification service for delegation events.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Overseer) {
		o.notifier = notifier
	}
}

// New constructs an Overseer backed by the given ledger store.
func New(store *ledger.Store, logger *slog.Logger, opts ...Option) *Overseer {
	overseer := &Overseer{
		store:      store,
		logger:     logging.NewComponentLogger(logger, "overseer"),
		strategies: make(map[string]*StrategicPlan),
	}
	for _, opt := range opts {
		opt(overseer)
	}
	return overseer
}

// DelegateTask records a new delegation and returns it. Delegation never
// performs I/O beyond the ledger append; it cannot fail on agent
// availability because no agent is contacted.
func (o *Overseer) DelegateTask(ctx context.Context, agentType, description string, priority int, taskContext map[string]any) (*ledger.Delegation, error) {
	agentType = strings.TrimSpace(agentType)
	if agentType == "" {
		agentType = "peasant"
	}
	if priority < 1 {
		priority = 1
	}
	if priority > 5 {
		priority = 5
	}
	if taskContext == nil {
		taskContext = map[string]any{}
	}

	record := &ledger.Delegation{
		ID:                  "del_" + uuid.NewString(),
		AgentType:           agentType,
		Task:                description,
		Priority:            priority,
		Context:             taskContext,
		DelegatedBy:         Authority,
		Status:              "pending",
		EstimatedCompletion: estimateCompletion(description, agentType),
		CreatedAt:           time.Now().UTC(),
	}
	if err := o.store.AppendDelegation(ctx, record); err != nil {
		return nil, fmt.Errorf("record delegation: %w", err)
	}

	o.logger.Info("task delegated",
		logging.String("agent_type", agentType),
		logging.String("delegation_id", record.ID),
		logging.Int("priority", priority),
		logging.String("estimated_completion", record.EstimatedCompletion),
	)
	if o.notifier != nil {
		if err := o.notifier.NotifyDelegationIssued(ctx, agentType, description, record.EstimatedCompletion); err != nil {
			o.logger.Warn("delegation notification failed", logging.Error(err))
		}
	}
	return record, nil
}

// History returns all delegations in issue order. The records are copies;
// callers may mutate them freely.
func (o *Overseer) History(ctx context.Context) ([]*ledger.Delegation, error) {
	return o.store.ListDelegations(ctx)
}

// estimateCompletion applies the completion-time heuristic: a base duration
// by agent type scaled by a step function of description length.
func estimateCompletion(description, agentType string) string {
	base := 10 // minutes for peasant tasks
	if agentType == "serf" {
		base = 5
	}
	multiplier := 1
	switch length := len(description); {
	case length > 500:
		multiplier = 3
	case length > 200:
		multiplier = 2
	}
	return fmt.Sprintf("%d minutes", base*multiplier)
}

// ActiveStrategies returns a snapshot of stored plans keyed by strategy id.
func (o *Overseer) ActiveStrategies() map[string]*StrategicPlan {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]*StrategicPlan, len(o.strategies))
	for id, plan := range o.strategies {
		out[id] = plan
	}
	return out
}

func (o *Overseer) storeStrategy(plan *StrategicPlan) string {
	id := "strategy_" + uuid.NewString()
	o.mu.Lock()
	o.strategies[id] = plan
	o.mu.Unlock()
	return id
}

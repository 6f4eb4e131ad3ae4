package overseer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"serfdom/internal/config"
	"serfdom/internal/ledger"
	"serfdom/internal/logging"
)

func newTestOverseer(t *testing.T, opts ...Option) *Overseer {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.DataDir = ""
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, logging.NewNop(), opts...)
}

func TestEstimateCompletion(t *testing.T) {
	tests := []struct {
		name      string
		agentType string
		length    int
		want      string
	}{
		{"serf short", "serf", 100, "5 minutes"},
		{"serf medium", "serf", 300, "10 minutes"},
		{"serf long", "serf", 600, "15 minutes"},
		{"peasant short", "peasant", 100, "10 minutes"},
		{"peasant medium", "peasant", 201, "20 minutes"},
		{"peasant long", "peasant", 501, "30 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			description := strings.Repeat("x", tt.length)
			if got := estimateCompletion(description, tt.agentType); got != tt.want {
				t.Fatalf("estimateCompletion(%d chars, %s) = %q, want %q", tt.length, tt.agentType, got, tt.want)
			}
		})
	}
}

func TestDelegateTaskRecordsLedgerEntry(t *testing.T) {
	overseer := newTestOverseer(t)
	ctx := context.Background()

	record, err := overseer.DelegateTask(ctx, "serf", strings.Repeat("x", 600), 5, map[string]any{"field": "north"})
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if record.EstimatedCompletion != "15 minutes" {
		t.Fatalf("estimated completion = %q", record.EstimatedCompletion)
	}
	if record.DelegatedBy != Authority {
		t.Fatalf("delegated by = %q", record.DelegatedBy)
	}
	if record.Status != "pending" {
		t.Fatalf("status = %q", record.Status)
	}
	if !strings.HasPrefix(record.ID, "del_") {
		t.Fatalf("id = %q", record.ID)
	}

	history, err := overseer.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != record.ID {
		t.Fatalf("history = %v", history)
	}
}

func TestDelegateTaskClampsPriorityAndDefaultsAgent(t *testing.T) {
	overseer := newTestOverseer(t)
	record, err := overseer.DelegateTask(context.Background(), "", "simple task", 9, nil)
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if record.AgentType != "peasant" {
		t.Fatalf("agent type = %q", record.AgentType)
	}
	if record.Priority != 5 {
		t.Fatalf("priority = %d", record.Priority)
	}
	if record.Context == nil {
		t.Fatal("context must not be nil")
	}
}

type stubModel struct {
	response string
	err      error
	prompts  []string
}

func (m *stubModel) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	m.prompts = append(m.prompts, userPrompt)
	return m.response, m.err
}

func TestStrategizeParsesPlan(t *testing.T) {
	model := &stubModel{response: `{
		"objective": "expand the fields",
		"approach": "delegate tilling",
		"task_breakdown": [
			{"agent_type": "serf", "description": "till the north field", "priority": 4}
		],
		"success_metrics": ["acres tilled"],
		"timeline": "2 days"
	}`}
	overseer := newTestOverseer(t, WithModel(model))

	plan, err := overseer.Strategize(context.Background(), "expand the fields", map[string]any{"season": "spring"})
	if err != nil {
		t.Fatalf("strategize: %v", err)
	}
	if plan.Approach != "delegate tilling" {
		t.Fatalf("approach = %q", plan.Approach)
	}
	if len(plan.TaskBreakdown) != 1 || plan.TaskBreakdown[0].AgentType != "serf" {
		t.Fatalf("breakdown = %v", plan.TaskBreakdown)
	}
	if len(overseer.ActiveStrategies()) != 1 {
		t.Fatal("strategy not stored")
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], "spring") {
		t.Fatalf("context not forwarded: %v", model.prompts)
	}
}

func TestStrategizeDegradesOnMalformedResponse(t *testing.T) {
	raw := "I shall consider the matter of the harvest at length."
	overseer := newTestOverseer(t, WithModel(&stubModel{response: raw}))

	plan, err := overseer.Strategize(context.Background(), "plan the harvest", nil)
	if err != nil {
		t.Fatalf("strategize must not fail on malformed output: %v", err)
	}
	if plan.Approach != raw {
		t.Fatalf("approach = %q", plan.Approach)
	}
	if plan.Timeline != "To be determined" {
		t.Fatalf("timeline = %q", plan.Timeline)
	}
	if plan.Objective != "plan the harvest" {
		t.Fatalf("objective = %q", plan.Objective)
	}
	if len(plan.TaskBreakdown) != 0 {
		t.Fatalf("breakdown = %v", plan.TaskBreakdown)
	}
}

func TestStrategizeRequiresModel(t *testing.T) {
	overseer := newTestOverseer(t)
	if _, err := overseer.Strategize(context.Background(), "anything", nil); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
}

func TestCoordinateDelegatesBreakdown(t *testing.T) {
	model := &stubModel{response: `{
		"objective": "bring in the harvest",
		"approach": "split by field",
		"task_breakdown": [
			{"agent_type": "serf", "description": "reap the north field", "priority": 4},
			{"agent_type": "peasant", "description": "process the grain", "priority": 3}
		],
		"timeline": "1 week"
	}`}
	overseer := newTestOverseer(t, WithModel(model))

	plan, err := overseer.Coordinate(context.Background(), "bring in the harvest")
	if err != nil {
		t.Fatalf("coordinate: %v", err)
	}
	if len(plan.DelegatedTasks) != 2 {
		t.Fatalf("delegated = %v", plan.DelegatedTasks)
	}
	if len(plan.AgentsInvolved) != 2 {
		t.Fatalf("agents = %v", plan.AgentsInvolved)
	}
	if !strings.HasPrefix(plan.CoordinationID, "coord_") {
		t.Fatalf("coordination id = %q", plan.CoordinationID)
	}
	history, err := overseer.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d", len(history))
	}
	for _, record := range history {
		if got, ok := record.Context["coordination_id"].(string); !ok || got != plan.CoordinationID {
			t.Fatalf("delegation context = %v", record.Context)
		}
	}
}

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Delegation records one task handed down by the overseer. Records are
// append-only; the ledger tracks intent, not execution.
type Delegation struct {
	ID                  string         `json:"delegation_id"`
	AgentType           string         `json:"agent_type"`
	Task                string         `json:"task"`
	Priority            int            `json:"priority"`
	Context             map[string]any `json:"context"`
	DelegatedBy         string         `json:"delegated_by"`
	Status              string         `json:"status"`
	EstimatedCompletion string         `json:"estimated_completion"`
	CreatedAt           time.Time      `json:"created_at"`
}

// AppendDelegation stores a new delegation record.
func (s *Store) AppendDelegation(ctx context.Context, record *Delegation) error {
	if record == nil {
		return errors.New("ledger: nil delegation")
	}
	if record.ID == "" {
		return errors.New("ledger: delegation missing id")
	}
	contextJSON, err := marshalMap(record.Context)
	if err != nil {
		return fmt.Errorf("encode delegation context: %w", err)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx, `
INSERT INTO delegations (id, agent_type, task, priority, context_json, delegated_by, status, estimated_completion, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.AgentType,
		record.Task,
		record.Priority,
		contextJSON,
		record.DelegatedBy,
		record.Status,
		record.EstimatedCompletion,
		createdAt.Format(time.RFC3339Nano),
	)
}

// ListDelegations returns delegation history in creation order. Every call
// returns fresh copies; callers may mutate the result freely.
func (s *Store) ListDelegations(ctx context.Context) ([]*Delegation, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, agent_type, task, priority, context_json, delegated_by, status, estimated_completion, created_at
FROM delegations ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}
	defer rows.Close()

	var records []*Delegation
	for rows.Next() {
		var (
			record      Delegation
			contextJSON string
			createdAt   string
		)
		if err := rows.Scan(&record.ID, &record.AgentType, &record.Task, &record.Priority, &contextJSON, &record.DelegatedBy, &record.Status, &record.EstimatedCompletion, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(contextJSON), &record.Context); err != nil {
			return nil, fmt.Errorf("decode delegation context: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			record.CreatedAt = parsed
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// CountDelegations returns the number of recorded delegations.
func (s *Store) CountDelegations(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM delegations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count delegations: %w", err)
	}
	return count, nil
}

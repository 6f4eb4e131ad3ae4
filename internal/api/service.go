package api

import (
	"context"

	"serfdom/internal/ledger"
	"serfdom/internal/task"
)

// LedgerReader abstracts the ledger queries the API surface needs.
type LedgerReader interface {
	GetResult(ctx context.Context, requestID string) (*task.Result, error)
	ListResults(ctx context.Context, limit int) ([]*task.Result, error)
	ListDelegations(ctx context.Context) ([]*ledger.Delegation, error)
}

// TaskService exposes read-only ledger operations returning API DTOs.
type TaskService struct {
	store LedgerReader
}

// NewTaskService constructs a TaskService around the provided reader.
func NewTaskService(store LedgerReader) *TaskService {
	if store == nil {
		return nil
	}
	return &TaskService{store: store}
}

// Describe fetches a single task result. Returns ledger.ErrNotFound for
// unknown ids.
func (s *TaskService) Describe(ctx context.Context, requestID string) (TaskView, error) {
	if s == nil || s.store == nil {
		return TaskView{}, ledger.ErrNotFound
	}
	result, err := s.store.GetResult(ctx, requestID)
	if err != nil {
		return TaskView{}, err
	}
	return FromResult(result), nil
}

// List returns recent task results, newest first.
func (s *TaskService) List(ctx context.Context, limit int) ([]TaskView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	results, err := s.store.ListResults(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromResults(results), nil
}

// Delegations returns the delegation history in issue order.
func (s *TaskService) Delegations(ctx context.Context) ([]DelegationView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	records, err := s.store.ListDelegations(ctx)
	if err != nil {
		return nil, err
	}
	return FromDelegations(records), nil
}

package api

import (
	"serfdom/internal/ledger"
	"serfdom/internal/metrics"
	"serfdom/internal/task"
)

// FromResult converts a ledger result into its API view.
func FromResult(result *task.Result) TaskView {
	if result == nil {
		return TaskView{}
	}
	view := TaskView{
		RequestID:             result.RequestID,
		Status:                string(result.Status),
		StagesCompleted:       append([]string(nil), result.StagesCompleted...),
		ProcessingTimeSeconds: result.ProcessingTime.Seconds(),
		ErrorMessage:          result.ErrorMessage,
		Warnings:              append([]string(nil), result.Warnings...),
		Data:                  result.Data,
	}
	if !result.CompletedAt.IsZero() {
		view.CompletedAt = result.CompletedAt.Format(dateTimeFormat)
	}
	return view
}

// FromResults converts a result slice.
func FromResults(results []*task.Result) []TaskView {
	views := make([]TaskView, 0, len(results))
	for _, result := range results {
		views = append(views, FromResult(result))
	}
	return views
}

// FromDelegation converts a delegation record into its API view.
func FromDelegation(record *ledger.Delegation) DelegationView {
	if record == nil {
		return DelegationView{}
	}
	view := DelegationView{
		DelegationID:        record.ID,
		AgentType:           record.AgentType,
		Task:                record.Task,
		Priority:            record.Priority,
		Context:             record.Context,
		DelegatedBy:         record.DelegatedBy,
		Status:              record.Status,
		EstimatedCompletion: record.EstimatedCompletion,
	}
	if !record.CreatedAt.IsZero() {
		view.CreatedAt = record.CreatedAt.Format(dateTimeFormat)
	}
	return view
}

// FromDelegations converts a delegation slice.
func FromDelegations(records []*ledger.Delegation) []DelegationView {
	views := make([]DelegationView, 0, len(records))
	for _, record := range records {
		views = append(views, FromDelegation(record))
	}
	return views
}

// FromMetrics converts an aggregate snapshot into its API view.
func FromMetrics(snap metrics.Snapshot) MetricsView {
	return MetricsView{
		TotalProcessed:               snap.TotalProcessed,
		TotalFailed:                  snap.TotalFailed,
		SuccessRate:                  snap.SuccessRate,
		AverageProcessingTimeSeconds: snap.AverageProcessingTime.Seconds(),
		QueueLength:                  snap.QueueLength,
	}
}

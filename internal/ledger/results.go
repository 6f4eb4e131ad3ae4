package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"serfdom/internal/task"
)

// SaveResult upserts the terminal record for a request. Reprocessing a
// request id overwrites the previous record.
func (s *Store) SaveResult(ctx context.Context, result *task.Result) error {
	if result == nil {
		return errors.New("ledger: nil result")
	}
	if result.RequestID == "" {
		return errors.New("ledger: result missing request id")
	}

	resultJSON, err := marshalMap(result.Data)
	if err != nil {
		return fmt.Errorf("encode result data: %w", err)
	}
	stagesJSON, err := marshalStrings(result.StagesCompleted)
	if err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}
	warningsJSON, err := marshalStrings(result.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	completedAt := result.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	return s.execWithRetry(ctx, `
INSERT INTO results (request_id, status, result_json, processing_time_seconds, stages_json, warnings_json, error_message, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(request_id) DO UPDATE SET
    status = excluded.status,
    result_json = excluded.result_json,
    processing_time_seconds = excluded.processing_time_seconds,
    stages_json = excluded.stages_json,
    warnings_json = excluded.warnings_json,
    error_message = excluded.error_message,
    completed_at = excluded.completed_at`,
		result.RequestID,
		string(result.Status),
		resultJSON,
		result.ProcessingTime.Seconds(),
		stagesJSON,
		warningsJSON,
		result.ErrorMessage,
		completedAt.Format(time.RFC3339Nano),
	)
}

// GetResult fetches one record by request id. Returns ErrNotFound when the
// id is unknown.
func (s *Store) GetResult(ctx context.Context, requestID string) (*task.Result, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `
SELECT request_id, status, result_json, processing_time_seconds, stages_json, warnings_json, error_message, completed_at
FROM results WHERE request_id = ?`, requestID)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: result %q", ErrNotFound, requestID)
	}
	return result, err
}

// ListResults returns records ordered most recent first, up to limit.
// A non-positive limit returns everything.
func (s *Store) ListResults(ctx context.Context, limit int) ([]*task.Result, error) {
	ctx = ensureContext(ctx)
	query := `
SELECT request_id, status, result_json, processing_time_seconds, stages_json, warnings_json, error_message, completed_at
FROM results ORDER BY completed_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []*task.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// CountResults returns the number of records with the given status, or all
// records when status is empty.
func (s *Store) CountResults(ctx context.Context, status task.Status) (int, error) {
	ctx = ensureContext(ctx)
	var (
		count int
		err   error
	)
	if status == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM results").Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM results WHERE status = ?", string(status)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}

// PruneResults deletes records completed before the cutoff and returns how
// many were removed.
func (s *Store) PruneResults(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			"DELETE FROM results WHERE completed_at < ?", cutoff.UTC().Format(time.RFC3339Nano))
		if execErr != nil {
			return execErr
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune results: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*task.Result, error) {
	var (
		result       task.Result
		status       string
		resultJSON   string
		seconds      float64
		stagesJSON   string
		warningsJSON string
		completedAt  string
	)
	if err := row.Scan(&result.RequestID, &status, &resultJSON, &seconds, &stagesJSON, &warningsJSON, &result.ErrorMessage, &completedAt); err != nil {
		return nil, err
	}
	result.Status = task.Status(status)
	result.ProcessingTime = time.Duration(seconds * float64(time.Second))
	if err := json.Unmarshal([]byte(resultJSON), &result.Data); err != nil {
		return nil, fmt.Errorf("decode result data: %w", err)
	}
	if err := json.Unmarshal([]byte(stagesJSON), &result.StagesCompleted); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &result.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
		result.CompletedAt = parsed
	}
	return &result, nil
}

func marshalMap(value map[string]any) (string, error) {
	if value == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

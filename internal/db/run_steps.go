package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StartStep records that a step of the run began. Restarting a step resets it.
func (db *DB) StartStep(ctx context.Context, runID uuid.UUID, step string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = $3, started_at = NOW(), completed_at = NULL,
		     duration_ms = NULL, row_count = NULL, error_message = NULL`,
		runID, step, StepStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to start step %s: %w", step, err)
	}
	return nil
}

// FinishStep closes a step with its row count, or with stepErr when it failed.
func (db *DB) FinishStep(ctx context.Context, runID uuid.UUID, step string, rows int, stepErr error) error {
	status := StepStatusCompleted
	var errorMsg *string
	if stepErr != nil {
		status = StepStatusFailed
		msg := stepErr.Error()
		errorMsg = &msg
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status = $3, row_count = $4, error_message = $5, completed_at = NOW(),
		     duration_ms = (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::INTEGER
		 WHERE run_id = $1 AND step = $2`,
		runID, step, status, rows, errorMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to finish step %s: %w", step, err)
	}
	return nil
}

// ListRunSteps returns the steps of a run in start order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, status, row_count, error_message, started_at, completed_at, duration_ms
		 FROM run_steps WHERE run_id = $1 ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		var s RunStep
		if err := rows.Scan(&s.ID, &s.RunID, &s.Step, &s.Status, &s.Rows, &s.ErrorMessage,
			&s.StartedAt, &s.CompletedAt, &s.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

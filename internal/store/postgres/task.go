package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

const taskColumns = `task_id, user_id, url, status, tags, summary, next_delivery, retries, fail_reason, created_at, updated_at`

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.TaskID, &t.UserID, &t.URL, &t.Status, &t.Tags, &t.Summary, &t.NextDelivery, &t.Retries, &t.FailReason, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) Enqueue(ctx context.Context, userID uuid.UUID, url string, tags []string) (model.Task, error) {
	const sql = `
	INSERT INTO bookmark_task (user_id, url, status, tags)
	VALUES ($1, $2, 'pending', $3)
	RETURNING ` + taskColumns

	row := s.pool.QueryRow(ctx, sql, userID, url, tags)
	t, err := scanTask(row)
	if err != nil {
		return model.Task{}, fmt.Errorf("enqueueing task: %w", errors.Join(apperr.Internal, err))
	}
	return t, nil
}

// Lease claims at most one pending, due task using FOR UPDATE SKIP LOCKED so
// concurrent workers never double-lease the same row, then stamps its
// next_delivery forward by visibility within the same transaction so the
// lease is held until that window elapses (original_source's peek pattern,
// narrowed from a batch-of-10 peek to a single leased row per worker).
func (s *Store) Lease(ctx context.Context, now time.Time, visibility time.Duration) (*model.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning lease tx: %w", errors.Join(apperr.Internal, err))
	}
	defer tx.Rollback(ctx)

	const selectSQL = `
	SELECT ` + taskColumns + ` FROM bookmark_task
	WHERE status = 'pending' AND next_delivery <= $1
	ORDER BY next_delivery ASC, created_at ASC
	FOR UPDATE SKIP LOCKED
	LIMIT 1`

	row := tx.QueryRow(ctx, selectSQL, now)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leasing task: %w", errors.Join(apperr.Internal, err))
	}

	next := now.Add(visibility)
	const updateSQL = `UPDATE bookmark_task SET next_delivery = $1 WHERE task_id = $2`
	if _, err := tx.Exec(ctx, updateSQL, next, t.TaskID); err != nil {
		return nil, fmt.Errorf("extending lease: %w", errors.Join(apperr.Internal, err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing lease: %w", errors.Join(apperr.Internal, err))
	}

	t.NextDelivery = next
	return &t, nil
}

func (s *Store) AckSuccess(ctx context.Context, taskID uuid.UUID) error {
	const sql = `UPDATE bookmark_task SET status = 'done', updated_at = now() WHERE task_id = $1`
	tag, err := s.pool.Exec(ctx, sql, taskID)
	if err != nil {
		return fmt.Errorf("acking success: %w", errors.Join(apperr.Internal, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", taskID, apperr.NotFound)
	}
	return nil
}

// AckRetry increments retries and, if the budget is exhausted, fails the
// task instead of rescheduling it.
func (s *Store) AckRetry(ctx context.Context, taskID uuid.UUID, nextDelivery time.Time, maxRetries int) error {
	const sql = `
	UPDATE bookmark_task SET
		status = CASE WHEN retries + 1 >= $2 THEN 'fail' ELSE 'pending' END,
		fail_reason = CASE WHEN retries + 1 >= $2 THEN 'retry budget exhausted' ELSE fail_reason END,
		retries = retries + 1,
		next_delivery = CASE WHEN retries + 1 >= $2 THEN next_delivery ELSE $3 END,
		updated_at = now()
	WHERE task_id = $1`

	tag, err := s.pool.Exec(ctx, sql, taskID, maxRetries, nextDelivery)
	if err != nil {
		return fmt.Errorf("acking retry: %w", errors.Join(apperr.Internal, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", taskID, apperr.NotFound)
	}
	return nil
}

func (s *Store) AckFatal(ctx context.Context, taskID uuid.UUID, reason string) error {
	const sql = `UPDATE bookmark_task SET status = 'fail', fail_reason = $2, updated_at = now() WHERE task_id = $1`
	tag, err := s.pool.Exec(ctx, sql, taskID, reason)
	if err != nil {
		return fmt.Errorf("acking fatal: %w", errors.Join(apperr.Internal, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", taskID, apperr.NotFound)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error) {
	const sql = `SELECT ` + taskColumns + ` FROM bookmark_task WHERE user_id = $1 AND task_id = $2`
	row := s.pool.QueryRow(ctx, sql, userID, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %s: %w", taskID, apperr.NotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("getting task: %w", errors.Join(apperr.Internal, err))
	}
	return t, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tabrev/internal/models"
)

type TaskRepo struct {
	db *DB
}

func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, t models.Task) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO tasks (task_id, project_id, state, total_pairs)
VALUES ($1, $2, $3, $4)`,
		t.TaskID, t.ProjectID, t.State, t.TotalPairs)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepo) MarkRunning(ctx context.Context, taskID string, totalPairs int) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE tasks SET state=$2, total_pairs=$3, started_at=COALESCE(started_at, NOW())
WHERE task_id=$1`, taskID, models.TaskRunning, totalPairs)
	if err != nil {
		return fmt.Errorf("mark task running: %w", err)
	}
	return nil
}

func (r *TaskRepo) AddProgress(ctx context.Context, taskID string, done, failed int) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE tasks SET done_pairs=done_pairs+$2, failed_pairs=failed_pairs+$3
WHERE task_id=$1`, taskID, done, failed)
	if err != nil {
		return fmt.Errorf("add task progress: %w", err)
	}
	return nil
}

func (r *TaskRepo) Finish(ctx context.Context, taskID string, state models.TaskState, errorMessage string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE tasks SET state=$2, error_message=NULLIF($3,''), completed_at=NOW()
WHERE task_id=$1`, taskID, state, errorMessage)
	if err != nil {
		return fmt.Errorf("finish task: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, taskID string) (models.Task, error) {
	var t models.Task
	err := r.db.Pool.QueryRow(ctx, `
SELECT task_id::text, project_id::text, state, total_pairs, done_pairs, failed_pairs,
       COALESCE(error_message,''), created_at, started_at, completed_at
FROM tasks
WHERE task_id=$1`, taskID).
		Scan(&t.TaskID, &t.ProjectID, &t.State, &t.TotalPairs, &t.DonePairs, &t.FailedPairs,
			&t.ErrorMessage, &t.CreatedAt, &t.StartedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

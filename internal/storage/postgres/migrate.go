package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/models"
)

// MigrateStandaloneTasksToNotes converts every standalone task into a note
// carrying one task-formatted entry plus the embedded task row, then removes
// the standalone row. Each task converts in its own transaction, so a crash
// mid-run leaves every task in exactly one representation and the next run
// picks up the remainder. An empty standalone_tasks table makes the whole
// pass a no-op, which is what makes repeated startup runs safe.
func (s *Store) MigrateStandaloneTasksToNotes(ctx context.Context) error {
	tasks, err := s.GetAllStandaloneTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tasks for migration: %w", err)
	}
	for _, task := range tasks {
		if err := s.migrateOne(ctx, task); err != nil {
			return fmt.Errorf("failed to migrate task %s: %w", task.ID, err)
		}
	}
	if len(tasks) > 0 {
		s.logger.Info("standalone_tasks_migrated", zap.Int("count", len(tasks)))
	}
	return nil
}

func (s *Store) migrateOne(ctx context.Context, task *models.StandaloneTask) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	noteID := uuid.NewString()
	embedded := models.Task{
		ID:          task.ID,
		Description: task.Description,
		IsCompleted: task.IsCompleted,
		CompletedAt: task.CompletedAt,
		Steps:       task.Steps,
		CreatedAt:   task.CreatedAt,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, hashtags, urgency, importance, primary_format, created_at, last_modified)
		VALUES ($1, $2, '[]', $3, $4, 'task', $5, $6)
	`, noteID, task.Description, task.Urgency, task.Importance, task.CreatedAt, task.LastEditedAt)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	data, err := json.Marshal(models.FormatData{Task: &embedded})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, note_id, content, formats, data, created_at, is_edited)
		VALUES ($1, $2, $3, '["task"]', $4, $5, FALSE)
	`, uuid.NewString(), noteID, task.Description, data, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	steps, err := json.Marshal(embedded.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, note_id, description, is_completed, completed_at, steps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, embedded.ID, noteID, embedded.Description, embedded.IsCompleted, nullTime(task.CompletedAt), steps, embedded.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM standalone_tasks WHERE id = $1`, task.ID); err != nil {
		return fmt.Errorf("failed to remove standalone row: %w", err)
	}
	return tx.Commit()
}

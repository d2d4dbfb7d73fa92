package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateStandaloneTask inserts a top-level task.
func (s *Store) CreateStandaloneTask(ctx context.Context, description string) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	query := `
		INSERT INTO standalone_tasks (id, description, urgency, steps, created_at, last_edited_at)
		VALUES ($1, $2, 'none', '[]', $3, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, id, description, now); err != nil {
		return "", fmt.Errorf("failed to create standalone task: %w", err)
	}
	return id, nil
}

// GetAllStandaloneTasks loads every standalone task.
func (s *Store) GetAllStandaloneTasks(ctx context.Context) ([]*models.StandaloneTask, error) {
	query := `
		SELECT id, description, is_completed, completed_at, due_date, reminder_time,
		       urgency, importance, steps, created_at, last_edited_at
		FROM standalone_tasks
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query standalone tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.StandaloneTask
	for rows.Next() {
		task := &models.StandaloneTask{}
		var stepsJSON []byte
		var completedAt, dueDate, reminderTime sql.NullTime
		err := rows.Scan(
			&task.ID,
			&task.Description,
			&task.IsCompleted,
			&completedAt,
			&dueDate,
			&reminderTime,
			&task.Urgency,
			&task.Importance,
			&stepsJSON,
			&task.CreatedAt,
			&task.LastEditedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standalone task: %w", err)
		}
		if err := json.Unmarshal(stepsJSON, &task.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}
		if completedAt.Valid {
			task.CompletedAt = &completedAt.Time
		}
		if dueDate.Valid {
			task.DueDate = &dueDate.Time
		}
		if reminderTime.Valid {
			task.ReminderTime = &reminderTime.Time
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standalone tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStandaloneTask applies the patch. The Set* flags let due date and
// reminder be cleared, not just changed.
func (s *Store) UpdateStandaloneTask(ctx context.Context, id string, patch storage.StandaloneTaskPatch) error {
	query := "UPDATE standalone_tasks SET "
	args := []any{id}
	argIndex := 2
	set := func(column string, value any) {
		if argIndex > 2 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Urgency != nil {
		set("urgency", *patch.Urgency)
	}
	if patch.Importance != nil {
		set("importance", *patch.Importance)
	}
	if patch.SetDueDate {
		set("due_date", nullTime(patch.DueDate))
	}
	if patch.SetReminderTime {
		set("reminder_time", nullTime(patch.ReminderTime))
	}
	if patch.LastEditedAt != nil {
		set("last_edited_at", *patch.LastEditedAt)
	}
	if argIndex == 2 {
		return nil
	}
	query += " WHERE id = $1"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update standalone task: %w", err)
	}
	return requireRow(result)
}

// ToggleStandaloneTask flips completion and stamps or clears completed_at.
func (s *Store) ToggleStandaloneTask(ctx context.Context, id string) error {
	query := `
		UPDATE standalone_tasks
		SET is_completed = NOT is_completed,
		    completed_at = CASE WHEN is_completed THEN NULL ELSE $2 END
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to toggle standalone task: %w", err)
	}
	return requireRow(result)
}

// DeleteStandaloneTask removes a top-level task.
func (s *Store) DeleteStandaloneTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM standalone_tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete standalone task: %w", err)
	}
	return requireRow(result)
}

// AddStandaloneTaskStep appends a step to a standalone task.
func (s *Store) AddStandaloneTaskStep(ctx context.Context, taskID, description string) (string, error) {
	stepID := uuid.NewString()
	err := s.mutateTaskSteps(ctx, "standalone_tasks", taskID, func(task *stepHolder) error {
		task.Steps = append(task.Steps, models.Step{
			ID:          stepID,
			Description: description,
			CreatedAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return stepID, nil
}

// ToggleStandaloneTaskStep flips a step and re-derives task completion.
func (s *Store) ToggleStandaloneTaskStep(ctx context.Context, taskID, stepID string) error {
	return s.mutateTaskSteps(ctx, "standalone_tasks", taskID, func(task *stepHolder) error {
		return task.toggleStep(stepID)
	})
}

// DeleteStandaloneTaskStep removes a step from a standalone task.
func (s *Store) DeleteStandaloneTaskStep(ctx context.Context, taskID, stepID string) error {
	return s.mutateTaskSteps(ctx, "standalone_tasks", taskID, func(task *stepHolder) error {
		return task.deleteStep(stepID)
	})
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

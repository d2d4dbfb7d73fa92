package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateTask inserts an embedded task on a note.
func (s *Store) CreateTask(ctx context.Context, noteID, description string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO tasks (id, note_id, description, steps, created_at)
		VALUES ($1, $2, $3, '[]', $4)
	`
	if _, err := s.db.ExecContext(ctx, query, id, noteID, description, time.Now()); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return id, nil
}

// AddTaskStep appends a step to an embedded task's step list.
func (s *Store) AddTaskStep(ctx context.Context, noteID, taskID, description string) (string, error) {
	stepID := uuid.NewString()
	err := s.mutateTaskSteps(ctx, "tasks", taskID, func(task *stepHolder) error {
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

// ToggleTaskStep flips a step's completion and re-derives the task's own
// completion from the full step list.
func (s *Store) ToggleTaskStep(ctx context.Context, taskID, stepID string) error {
	return s.mutateTaskSteps(ctx, "tasks", taskID, func(task *stepHolder) error {
		return task.toggleStep(stepID)
	})
}

// DeleteTaskStep removes a step from an embedded task.
func (s *Store) DeleteTaskStep(ctx context.Context, taskID, stepID string) error {
	return s.mutateTaskSteps(ctx, "tasks", taskID, func(task *stepHolder) error {
		return task.deleteStep(stepID)
	})
}

// ToggleTask flips an embedded task's completion state directly. Meant for
// tasks without steps; tasks with steps derive completion from them instead.
func (s *Store) ToggleTask(ctx context.Context, taskID string) error {
	query := `
		UPDATE tasks
		SET is_completed = NOT is_completed,
		    completed_at = CASE WHEN is_completed THEN NULL ELSE $2 END
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, taskID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	return requireRow(result)
}

// DeleteTask removes an embedded task.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(result)
}

func (s *Store) loadTasks(ctx context.Context, noteID string) ([]models.Task, error) {
	query := `
		SELECT id, description, is_completed, completed_at, steps, created_at
		FROM tasks
		WHERE note_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		var stepsJSON []byte
		var completedAt sql.NullTime
		err := rows.Scan(&task.ID, &task.Description, &task.IsCompleted, &completedAt, &stepsJSON, &task.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := json.Unmarshal(stepsJSON, &task.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}
		if completedAt.Valid {
			task.CompletedAt = &completedAt.Time
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// stepHolder is the shared completion-and-steps shape of both task tables.
type stepHolder struct {
	IsCompleted bool
	CompletedAt *time.Time
	Steps       []models.Step
}

func (h *stepHolder) toggleStep(stepID string) error {
	found := false
	now := time.Now()
	for i := range h.Steps {
		if h.Steps[i].ID != stepID {
			continue
		}
		found = true
		h.Steps[i].IsCompleted = !h.Steps[i].IsCompleted
		if h.Steps[i].IsCompleted {
			at := now
			h.Steps[i].CompletedAt = &at
		} else {
			h.Steps[i].CompletedAt = nil
		}
	}
	if !found {
		return storage.ErrNotFound
	}
	task := models.Task{IsCompleted: h.IsCompleted, CompletedAt: h.CompletedAt, Steps: h.Steps}
	task.RecomputeCompletion(now)
	h.IsCompleted = task.IsCompleted
	h.CompletedAt = task.CompletedAt
	return nil
}

func (h *stepHolder) deleteStep(stepID string) error {
	for i := range h.Steps {
		if h.Steps[i].ID == stepID {
			h.Steps = append(h.Steps[:i], h.Steps[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// mutateTaskSteps runs a read-modify-write on one task row's steps and
// completion columns inside a transaction, locking the row for the duration.
func (s *Store) mutateTaskSteps(ctx context.Context, table, taskID string, mutate func(*stepHolder) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stepsJSON []byte
	var completedAt sql.NullTime
	holder := stepHolder{}
	selectQuery := fmt.Sprintf(
		`SELECT is_completed, completed_at, steps FROM %s WHERE id = $1 FOR UPDATE`, table)
	err = tx.QueryRowContext(ctx, selectQuery, taskID).Scan(&holder.IsCompleted, &completedAt, &stepsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load task steps: %w", err)
	}
	if err := json.Unmarshal(stepsJSON, &holder.Steps); err != nil {
		return fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	if completedAt.Valid {
		holder.CompletedAt = &completedAt.Time
	}

	if err := mutate(&holder); err != nil {
		return err
	}

	newSteps, err := json.Marshal(holder.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}
	var newCompletedAt sql.NullTime
	if holder.CompletedAt != nil {
		newCompletedAt = sql.NullTime{Time: *holder.CompletedAt, Valid: true}
	}
	updateQuery := fmt.Sprintf(
		`UPDATE %s SET is_completed = $2, completed_at = $3, steps = $4 WHERE id = $1`, table)
	if _, err := tx.ExecContext(ctx, updateQuery, taskID, holder.IsCompleted, newCompletedAt, newSteps); err != nil {
		return fmt.Errorf("failed to update task steps: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

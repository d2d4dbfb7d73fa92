package diskv

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateStandaloneTask writes a new top-level task document.
func (s *Store) CreateStandaloneTask(_ context.Context, description string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task := &models.StandaloneTask{
		ID:           uuid.NewString(),
		Description:  description,
		Urgency:      models.UrgencyNone,
		Steps:        []models.Step{},
		CreatedAt:    now,
		LastEditedAt: now,
	}
	if err := s.writeJSON(key(prefixStandalone, task.ID), task); err != nil {
		return "", err
	}
	return task.ID, nil
}

// GetAllStandaloneTasks reads every standalone task document.
func (s *Store) GetAllStandaloneTasks(_ context.Context) ([]*models.StandaloneTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []*models.StandaloneTask
	for _, k := range s.keysWithPrefix(prefixStandalone) {
		task := &models.StandaloneTask{}
		if err := s.readJSON(k, task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Store) mutateStandalone(id string, mutate func(*models.StandaloneTask) error) error {
	task := &models.StandaloneTask{}
	k := key(prefixStandalone, id)
	if err := s.readJSON(k, task); err != nil {
		return err
	}
	if err := mutate(task); err != nil {
		return err
	}
	return s.writeJSON(k, task)
}

// UpdateStandaloneTask applies the patch, honoring the Set* clear flags.
func (s *Store) UpdateStandaloneTask(_ context.Context, id string, patch storage.StandaloneTaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateStandalone(id, func(task *models.StandaloneTask) error {
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Urgency != nil {
			task.Urgency = *patch.Urgency
		}
		if patch.Importance != nil {
			task.Importance = *patch.Importance
		}
		if patch.SetDueDate {
			task.DueDate = patch.DueDate
		}
		if patch.SetReminderTime {
			task.ReminderTime = patch.ReminderTime
		}
		if patch.LastEditedAt != nil {
			task.LastEditedAt = *patch.LastEditedAt
		}
		return nil
	})
}

// ToggleStandaloneTask flips completion and stamps or clears the timestamp.
func (s *Store) ToggleStandaloneTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateStandalone(id, func(task *models.StandaloneTask) error {
		task.IsCompleted = !task.IsCompleted
		if task.IsCompleted {
			at := s.now()
			task.CompletedAt = &at
		} else {
			task.CompletedAt = nil
		}
		return nil
	})
}

// DeleteStandaloneTask removes a top-level task document.
func (s *Store) DeleteStandaloneTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(prefixStandalone, id)
	if !s.d.Has(k) {
		return storage.ErrNotFound
	}
	return s.d.Erase(k)
}

// AddStandaloneTaskStep appends a step to a standalone task.
func (s *Store) AddStandaloneTaskStep(_ context.Context, taskID, description string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.mutateStandalone(taskID, func(task *models.StandaloneTask) error {
		task.Steps = append(task.Steps, models.Step{
			ID:          id,
			Description: description,
			CreatedAt:   s.now(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ToggleStandaloneTaskStep flips a step and re-derives task completion.
func (s *Store) ToggleStandaloneTaskStep(_ context.Context, taskID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateStandalone(taskID, func(task *models.StandaloneTask) error {
		if err := toggleStep(task.Steps, stepID, s.now()); err != nil {
			return err
		}
		derived := models.Task{IsCompleted: task.IsCompleted, CompletedAt: task.CompletedAt, Steps: task.Steps}
		derived.RecomputeCompletion(s.now())
		task.IsCompleted = derived.IsCompleted
		task.CompletedAt = derived.CompletedAt
		return nil
	})
}

// DeleteStandaloneTaskStep removes a step from a standalone task.
func (s *Store) DeleteStandaloneTaskStep(_ context.Context, taskID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateStandalone(taskID, func(task *models.StandaloneTask) error {
		for i := range task.Steps {
			if task.Steps[i].ID == stepID {
				task.Steps = append(task.Steps[:i], task.Steps[i+1:]...)
				return nil
			}
		}
		return storage.ErrNotFound
	})
}

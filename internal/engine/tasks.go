package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// Merge flattens note-embedded tasks into the combined shape, concatenates
// them with standalone tasks, and sorts the result by priority.
func Merge(standalone []*models.StandaloneTask, notes []*models.Note) []models.CombinedTask {
	out := make([]models.CombinedTask, 0, len(standalone))
	for _, t := range standalone {
		out = append(out, models.FromStandalone(t))
	}
	for _, n := range notes {
		for i := range n.Tasks {
			out = append(out, models.FromEmbedded(n, &n.Tasks[i]))
		}
	}
	SortByPriority(out)
	return out
}

// SortByPriority orders tasks by the priority cascade: urgency descending,
// importance descending, due date ascending (a task with a due date beats
// one without), creation time descending. Stable for equal keys.
func SortByPriority(tasks []models.CombinedTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Compare(&tasks[i], &tasks[j]) < 0
	})
}

// Compare is the priority comparator. Negative means a sorts before b.
func Compare(a, b *models.CombinedTask) int {
	if d := b.Urgency.Weight() - a.Urgency.Weight(); d != 0 {
		return d
	}
	if d := b.Importance - a.Importance; d != 0 {
		return d
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if a.DueDate.Before(*b.DueDate) {
			return -1
		}
		if b.DueDate.Before(*a.DueDate) {
			return 1
		}
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return -1
	}
	if b.CreatedAt.After(a.CreatedAt) {
		return 1
	}
	return 0
}

// FilterByCompletion keeps only completed or only active tasks. Completed
// vs. active partitioning happens around the sort, never inside the
// comparator.
func FilterByCompletion(tasks []models.CombinedTask, completed bool) []models.CombinedTask {
	out := make([]models.CombinedTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted == completed {
			out = append(out, t)
		}
	}
	return out
}

// CombinedTasks returns the merged, priority-sorted view of standalone and
// note-embedded tasks from the current snapshot.
func (e *Engine) CombinedTasks() []models.CombinedTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Merge(e.standalone, e.notes)
}

// CombinedTaskByID finds a task in the merged view.
func (e *Engine) CombinedTaskByID(id string) (models.CombinedTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range Merge(e.standalone, e.notes) {
		if t.ID == id {
			return t, true
		}
	}
	return models.CombinedTask{}, false
}

// CreateStandaloneTask creates a top-level task.
func (e *Engine) CreateStandaloneTask(ctx context.Context, description string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.store.CreateStandaloneTask(ctx, description)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateStandaloneTask applies a partial update (description, priority,
// due date, reminder time).
func (e *Engine) UpdateStandaloneTask(ctx context.Context, id string, patch storage.StandaloneTaskPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	patch.LastEditedAt = &now
	if err := e.store.UpdateStandaloneTask(ctx, id, patch); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return e.reload(ctx)
}

// ToggleStandaloneTask flips a standalone task's completion state.
func (e *Engine) ToggleStandaloneTask(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.ToggleStandaloneTask(ctx, id); err != nil {
		return fmt.Errorf("toggle task: %w", err)
	}
	return e.reload(ctx)
}

// CreateTask creates a task embedded in a note.
func (e *Engine) CreateTask(ctx context.Context, noteID, description string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.store.CreateTask(ctx, noteID, description)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// ToggleTask flips a task's completion state from the merged view, routing
// to the owning representation. Tasks with steps derive their completion
// from the steps instead and reject a direct toggle.
func (e *Engine) ToggleTask(ctx context.Context, task models.CombinedTask) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(task.Steps) > 0 {
		return fmt.Errorf("toggle task %s: completion is derived from steps", task.ID)
	}
	var err error
	if task.Origin == models.OriginEmbedded {
		err = e.store.ToggleTask(ctx, task.ID)
	} else {
		err = e.store.ToggleStandaloneTask(ctx, task.ID)
	}
	if err != nil {
		return fmt.Errorf("toggle task: %w", err)
	}
	return e.reload(ctx)
}

// DeleteTask deletes a task from the merged view, routing to the owning
// representation.
func (e *Engine) DeleteTask(ctx context.Context, task models.CombinedTask) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if task.Origin == models.OriginEmbedded {
		err = e.store.DeleteTask(ctx, task.ID)
	} else {
		err = e.store.DeleteStandaloneTask(ctx, task.ID)
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return e.reload(ctx)
}

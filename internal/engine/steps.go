package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// StepEditor applies step mutations to one task optimistically: the change
// lands on the working copy immediately, then the durable write is issued;
// on failure the pre-mutation snapshot is restored in full. Snapshots cover
// the whole task, not diffs, so rollback is trivial and exact. One editor
// mutates one task at a time; the engine mutex serializes overlapping edits.
type StepEditor struct {
	engine *Engine
	task   models.CombinedTask
	input  string
}

// EditTask opens a step editor on a task from the merged view.
func (e *Engine) EditTask(id string) (*StepEditor, error) {
	task, ok := e.CombinedTaskByID(id)
	if !ok {
		return nil, fmt.Errorf("edit task %s: %w", id, storage.ErrNotFound)
	}
	return &StepEditor{engine: e, task: *task.Clone()}, nil
}

// Task returns the editor's working copy, optimistic changes included.
func (ed *StepEditor) Task() models.CombinedTask {
	return *ed.task.Clone()
}

// SetInput stores the text typed into the new-step field.
func (ed *StepEditor) SetInput(text string) {
	ed.input = text
}

// Input returns the new-step field's current text. After a failed AddStep
// it holds what the user had typed.
func (ed *StepEditor) Input() string {
	return ed.input
}

// AddStep appends a step described by the current input. The step appears
// on the working copy under a temporary id and the input clears before the
// durable write is issued; on success the temporary id is replaced by the
// store-assigned one, on failure the task snapshot and the typed text are
// both restored.
func (ed *StepEditor) AddStep(ctx context.Context) (string, error) {
	e := ed.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	description := strings.TrimSpace(ed.input)
	if description == "" {
		return "", fmt.Errorf("add step: empty description")
	}

	snapshot := ed.task.Clone()
	tempID := "temp_" + uuid.NewString()
	ed.task.Steps = append(ed.task.Steps, models.Step{
		ID:          tempID,
		Description: description,
		CreatedAt:   e.now(),
	})
	ed.input = ""

	stepID, err := ed.persistAddStep(ctx, description)
	if err != nil {
		ed.task = *snapshot
		ed.input = description
		e.logger.Warn("step_add_rolled_back", zap.String("task_id", ed.task.ID), zap.Error(err))
		return "", fmt.Errorf("add step: %w", err)
	}

	for i := range ed.task.Steps {
		if ed.task.Steps[i].ID == tempID {
			ed.task.Steps[i].ID = stepID
		}
	}
	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return stepID, nil
}

// ToggleStep flips one step's completion and re-derives the task's own
// completion: all steps complete marks the task complete with a fresh
// timestamp, any incomplete step clears both. Applied locally first, then
// persisted; a failed write restores the pre-mutation snapshot entirely.
func (ed *StepEditor) ToggleStep(ctx context.Context, stepID string) error {
	e := ed.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := ed.task.Clone()
	found := false
	now := e.now()
	for i := range ed.task.Steps {
		if ed.task.Steps[i].ID != stepID {
			continue
		}
		found = true
		step := &ed.task.Steps[i]
		step.IsCompleted = !step.IsCompleted
		if step.IsCompleted {
			at := now
			step.CompletedAt = &at
		} else {
			step.CompletedAt = nil
		}
	}
	if !found {
		return fmt.Errorf("toggle step %s: %w", stepID, storage.ErrNotFound)
	}
	ed.task.RecomputeCompletion(now)

	if err := ed.persistToggleStep(ctx, stepID); err != nil {
		ed.task = *snapshot
		e.logger.Warn("step_toggle_rolled_back", zap.String("task_id", ed.task.ID), zap.Error(err))
		return fmt.Errorf("toggle step: %w", err)
	}
	return e.reload(ctx)
}

// DeleteStep removes a step locally, persists, and restores the snapshot
// on failure.
func (ed *StepEditor) DeleteStep(ctx context.Context, stepID string) error {
	e := ed.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := ed.task.Clone()
	kept := ed.task.Steps[:0:0]
	found := false
	for _, s := range ed.task.Steps {
		if s.ID == stepID {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return fmt.Errorf("delete step %s: %w", stepID, storage.ErrNotFound)
	}
	ed.task.Steps = kept

	if err := ed.persistDeleteStep(ctx, stepID); err != nil {
		ed.task = *snapshot
		e.logger.Warn("step_delete_rolled_back", zap.String("task_id", ed.task.ID), zap.Error(err))
		return fmt.Errorf("delete step: %w", err)
	}
	return e.reload(ctx)
}

func (ed *StepEditor) persistAddStep(ctx context.Context, description string) (string, error) {
	if ed.task.Origin == models.OriginEmbedded {
		return ed.engine.store.AddTaskStep(ctx, ed.task.NoteID, ed.task.ID, description)
	}
	return ed.engine.store.AddStandaloneTaskStep(ctx, ed.task.ID, description)
}

func (ed *StepEditor) persistToggleStep(ctx context.Context, stepID string) error {
	if ed.task.Origin == models.OriginEmbedded {
		return ed.engine.store.ToggleTaskStep(ctx, ed.task.ID, stepID)
	}
	return ed.engine.store.ToggleStandaloneTaskStep(ctx, ed.task.ID, stepID)
}

func (ed *StepEditor) persistDeleteStep(ctx context.Context, stepID string) error {
	if ed.task.Origin == models.OriginEmbedded {
		return ed.engine.store.DeleteTaskStep(ctx, ed.task.ID, stepID)
	}
	return ed.engine.store.DeleteStandaloneTaskStep(ctx, ed.task.ID, stepID)
}

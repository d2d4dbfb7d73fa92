package models

import (
	"testing"
	"time"
)

func TestUrgencyLevel_Weight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level  UrgencyLevel
		weight int
	}{
		{UrgencyHigh, 3},
		{UrgencyMedium, 2},
		{UrgencyLow, 1},
		{UrgencyNone, 0},
		{UrgencyLevel("bogus"), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()
			if got := tt.level.Weight(); got != tt.weight {
				t.Errorf("Weight(%s) = %d, want %d", tt.level, got, tt.weight)
			}
		})
	}
}

func TestTask_RecomputeCompletion(t *testing.T) {
	t.Parallel()

	now := time.Now()
	task := &Task{
		ID:          "t1",
		Description: "three step task",
		Steps: []Step{
			{ID: "s1", IsCompleted: true},
			{ID: "s2", IsCompleted: true},
			{ID: "s3", IsCompleted: false},
		},
	}

	// Two of three steps complete: task stays incomplete.
	task.RecomputeCompletion(now)
	if task.IsCompleted {
		t.Fatal("task with an incomplete step must not be completed")
	}
	if task.CompletedAt != nil {
		t.Fatal("incomplete task must not carry a completion timestamp")
	}

	// Completing the last step completes the task.
	task.Steps[2].IsCompleted = true
	task.RecomputeCompletion(now)
	if !task.IsCompleted {
		t.Fatal("task with all steps complete must be completed")
	}
	if task.CompletedAt == nil {
		t.Fatal("completed task must carry a completion timestamp")
	}

	// Un-completing any step clears the flag and timestamp again.
	task.Steps[0].IsCompleted = false
	task.RecomputeCompletion(now)
	if task.IsCompleted {
		t.Fatal("un-completing a step must clear task completion")
	}
	if task.CompletedAt != nil {
		t.Fatal("un-completing a step must clear the completion timestamp")
	}
}

func TestTask_RecomputeCompletion_NoSteps(t *testing.T) {
	t.Parallel()

	now := time.Now()
	task := &Task{ID: "t1", IsCompleted: true, CompletedAt: &now}
	task.RecomputeCompletion(now)
	if !task.IsCompleted {
		t.Fatal("a task without steps keeps its completion state")
	}
}

func TestFromEmbedded_InheritsNotePriority(t *testing.T) {
	t.Parallel()

	note := &Note{
		ID:         "n1",
		Title:      "groceries",
		Urgency:    UrgencyHigh,
		Importance: 4,
		Hashtags:   []string{"errands"},
	}
	task := &Task{ID: "t1", Description: "buy milk"}

	combined := FromEmbedded(note, task)
	if combined.Urgency != UrgencyHigh || combined.Importance != 4 {
		t.Errorf("embedded task must inherit note priority, got %s/%d", combined.Urgency, combined.Importance)
	}
	if combined.NoteID != "n1" || combined.NoteTitle != "groceries" {
		t.Errorf("embedded task must carry note provenance, got %q/%q", combined.NoteID, combined.NoteTitle)
	}
	if combined.Origin != OriginEmbedded {
		t.Errorf("origin = %s, want %s", combined.Origin, OriginEmbedded)
	}
}

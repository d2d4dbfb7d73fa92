package models

import (
	"time"
)

// Step is one checklist item of a task. A step belongs to exactly one task.
type Step struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Task is a task embedded in a note. It has no priority of its own; the
// merged task view inherits urgency and importance from the owning note.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Steps       []Step     `json:"steps"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	out := *t
	out.Steps = append([]Step(nil), t.Steps...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

// RecomputeCompletion derives the task's completion state from its steps.
// A task with steps completes only when every step is complete; any
// incomplete step clears the task's completion flag and timestamp. Tasks
// without steps are left untouched.
func (t *Task) RecomputeCompletion(now time.Time) {
	if len(t.Steps) == 0 {
		return
	}
	for _, s := range t.Steps {
		if !s.IsCompleted {
			t.IsCompleted = false
			t.CompletedAt = nil
			return
		}
	}
	if !t.IsCompleted {
		t.IsCompleted = true
		t.CompletedAt = &now
	}
}

// StandaloneTask is a top-level task not owned by any note. Legacy entity:
// superseded by note-embedded tasks via migration, but queryable until
// migrated away.
type StandaloneTask struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	IsCompleted  bool         `json:"is_completed"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	ReminderTime *time.Time   `json:"reminder_time,omitempty"`
	Urgency      UrgencyLevel `json:"urgency"`
	Importance   int          `json:"importance"`
	Steps        []Step       `json:"steps"`
	CreatedAt    time.Time    `json:"created_at"`
	LastEditedAt time.Time    `json:"last_edited_at"`
}

// Clone returns a deep copy of the standalone task.
func (t *StandaloneTask) Clone() *StandaloneTask {
	out := *t
	out.Steps = append([]Step(nil), t.Steps...)
	return &out
}

// TaskOrigin tags which representation a combined task came from.
type TaskOrigin string

const (
	OriginStandalone TaskOrigin = "standalone"
	OriginEmbedded   TaskOrigin = "embedded"
)

// CombinedTask is the merged shape of standalone and note-embedded tasks.
// Embedded tasks inherit urgency, importance, and hashtags from the owning
// note and carry the note's id and title for provenance display.
type CombinedTask struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	IsCompleted  bool         `json:"is_completed"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Steps        []Step       `json:"steps"`
	Urgency      UrgencyLevel `json:"urgency"`
	Importance   int          `json:"importance"`
	Hashtags     []string     `json:"hashtags,omitempty"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	ReminderTime *time.Time   `json:"reminder_time,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Origin       TaskOrigin   `json:"origin"`
	NoteID       string       `json:"note_id,omitempty"`
	NoteTitle    string       `json:"note_title,omitempty"`
}

// Clone returns a deep copy of the combined task.
func (t *CombinedTask) Clone() *CombinedTask {
	out := *t
	out.Steps = append([]Step(nil), t.Steps...)
	out.Hashtags = append([]string(nil), t.Hashtags...)
	return &out
}

// RecomputeCompletion derives completion from steps, same rule as Task.
func (t *CombinedTask) RecomputeCompletion(now time.Time) {
	if len(t.Steps) == 0 {
		return
	}
	for _, s := range t.Steps {
		if !s.IsCompleted {
			t.IsCompleted = false
			t.CompletedAt = nil
			return
		}
	}
	if !t.IsCompleted {
		t.IsCompleted = true
		t.CompletedAt = &now
	}
}

// FromStandalone maps a standalone task into the combined shape.
func FromStandalone(t *StandaloneTask) CombinedTask {
	return CombinedTask{
		ID:           t.ID,
		Description:  t.Description,
		IsCompleted:  t.IsCompleted,
		CompletedAt:  t.CompletedAt,
		Steps:        append([]Step(nil), t.Steps...),
		Urgency:      t.Urgency,
		Importance:   t.Importance,
		DueDate:      t.DueDate,
		ReminderTime: t.ReminderTime,
		CreatedAt:    t.CreatedAt,
		Origin:       OriginStandalone,
	}
}

// FromEmbedded maps a note-embedded task into the combined shape, inheriting
// the note's priority fields and hashtags.
func FromEmbedded(n *Note, t *Task) CombinedTask {
	return CombinedTask{
		ID:          t.ID,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CompletedAt: t.CompletedAt,
		Steps:       append([]Step(nil), t.Steps...),
		Urgency:     n.Urgency,
		Importance:  n.Importance,
		Hashtags:    append([]string(nil), n.Hashtags...),
		CreatedAt:   t.CreatedAt,
		Origin:      OriginEmbedded,
		NoteID:      n.ID,
		NoteTitle:   n.Title,
	}
}

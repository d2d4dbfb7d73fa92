// Package storage defines the persistence port the engine depends on.
// Backends live in subpackages; the engine never touches a database directly.
package storage

import (
	"context"
	"time"

	"github.com/noted-app/noted-api/internal/models"
)

// NotePatch is a partial note update. Nil fields are left unchanged.
type NotePatch struct {
	Title         *string
	Hashtags      *[]string
	Urgency       *models.UrgencyLevel
	Importance    *int
	PrimaryFormat *models.EntryFormat
	LastModified  *time.Time
}

// EntryPatch is a partial entry update. Nil fields are left unchanged.
type EntryPatch struct {
	Content  *string
	Formats  *[]models.EntryFormat
	Data     *models.FormatData
	EditedAt *time.Time
	IsEdited *bool
}

// StandaloneTaskPatch is a partial standalone-task update. Optional
// timestamps distinguish "not changed" (nil pointer) from "cleared"
// (pointer to nil) via the Set* flags.
type StandaloneTaskPatch struct {
	Description     *string
	Urgency         *models.UrgencyLevel
	Importance      *int
	DueDate         *time.Time
	SetDueDate      bool
	ReminderTime    *time.Time
	SetReminderTime bool
	LastEditedAt    *time.Time
}

// Store is the persistence port. All timestamps cross this boundary as
// serializable instants; backends parse them back into time.Time on read.
type Store interface {
	CreateNote(ctx context.Context, note *models.Note) (string, error)
	GetAllNotes(ctx context.Context) ([]*models.Note, error)
	GetNoteByID(ctx context.Context, id string) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch NotePatch) error
	DeleteNote(ctx context.Context, id string) error

	CreateEntry(ctx context.Context, noteID string, entry *models.Entry) (string, error)
	UpdateEntry(ctx context.Context, noteID, entryID string, patch EntryPatch) error
	DeleteEntry(ctx context.Context, noteID, entryID string) error

	CreateTask(ctx context.Context, noteID, description string) (string, error)
	AddTaskStep(ctx context.Context, noteID, taskID, description string) (string, error)
	ToggleTaskStep(ctx context.Context, taskID, stepID string) error
	DeleteTaskStep(ctx context.Context, taskID, stepID string) error
	ToggleTask(ctx context.Context, taskID string) error
	DeleteTask(ctx context.Context, taskID string) error

	CreateFolder(ctx context.Context, name string, isAutoGenerated bool) (string, error)
	GetAllFolders(ctx context.Context) ([]*models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error

	CreateStandaloneTask(ctx context.Context, description string) (string, error)
	GetAllStandaloneTasks(ctx context.Context) ([]*models.StandaloneTask, error)
	UpdateStandaloneTask(ctx context.Context, id string, patch StandaloneTaskPatch) error
	ToggleStandaloneTask(ctx context.Context, id string) error
	DeleteStandaloneTask(ctx context.Context, id string) error
	AddStandaloneTaskStep(ctx context.Context, taskID, description string) (string, error)
	ToggleStandaloneTaskStep(ctx context.Context, taskID, stepID string) error
	DeleteStandaloneTaskStep(ctx context.Context, taskID, stepID string) error

	Close() error
}

// TaskMigrator is the optional migration capability. Backends that can
// convert legacy standalone tasks into note+entry structures implement it;
// the engine feature-detects it with a type assertion and treats absence as
// a no-op, not an error.
type TaskMigrator interface {
	MigrateStandaloneTasksToNotes(ctx context.Context) error
}

// Pinger is the optional health-check capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

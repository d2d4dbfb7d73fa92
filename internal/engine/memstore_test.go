package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// memStore is an in-memory Store for engine tests. failNext maps a method
// name to an error returned on its next call, for exercising rollback paths.
type memStore struct {
	nextID     int
	notes      []*models.Note
	folders    []*models.Folder
	standalone []*models.StandaloneTask
	failNext   map[string]error
	now        func() time.Time
}

var _ storage.Store = (*memStore)(nil)
var _ storage.TaskMigrator = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		failNext: make(map[string]error),
		now:      func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func (m *memStore) fail(method string) error {
	if err, ok := m.failNext[method]; ok {
		delete(m.failNext, method)
		return err
	}
	return nil
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) CreateNote(_ context.Context, note *models.Note) (string, error) {
	if err := m.fail("CreateNote"); err != nil {
		return "", err
	}
	n := note.Clone()
	n.ID = m.id("note")
	m.notes = append(m.notes, n)
	return n.ID, nil
}

func (m *memStore) GetAllNotes(_ context.Context) ([]*models.Note, error) {
	if err := m.fail("GetAllNotes"); err != nil {
		return nil, err
	}
	out := make([]*models.Note, len(m.notes))
	for i, n := range m.notes {
		out[i] = n.Clone()
	}
	return out, nil
}

func (m *memStore) GetNoteByID(_ context.Context, id string) (*models.Note, error) {
	if err := m.fail("GetNoteByID"); err != nil {
		return nil, err
	}
	n := m.findNote(id)
	if n == nil {
		return nil, storage.ErrNotFound
	}
	return n.Clone(), nil
}

func (m *memStore) UpdateNote(_ context.Context, id string, patch storage.NotePatch) error {
	if err := m.fail("UpdateNote"); err != nil {
		return err
	}
	n := m.findNote(id)
	if n == nil {
		return storage.ErrNotFound
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Hashtags != nil {
		n.Hashtags = append([]string(nil), *patch.Hashtags...)
	}
	if patch.Urgency != nil {
		n.Urgency = *patch.Urgency
	}
	if patch.Importance != nil {
		n.Importance = *patch.Importance
	}
	if patch.PrimaryFormat != nil {
		n.PrimaryFormat = *patch.PrimaryFormat
	}
	if patch.LastModified != nil {
		n.LastModified = *patch.LastModified
	}
	return nil
}

func (m *memStore) DeleteNote(_ context.Context, id string) error {
	if err := m.fail("DeleteNote"); err != nil {
		return err
	}
	for i, n := range m.notes {
		if n.ID == id {
			m.notes = append(m.notes[:i], m.notes[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) CreateEntry(_ context.Context, noteID string, entry *models.Entry) (string, error) {
	if err := m.fail("CreateEntry"); err != nil {
		return "", err
	}
	n := m.findNote(noteID)
	if n == nil {
		return "", storage.ErrNotFound
	}
	e := entry.Clone()
	e.ID = m.id("entry")
	n.Entries = append(n.Entries, e)
	return e.ID, nil
}

func (m *memStore) UpdateEntry(_ context.Context, noteID, entryID string, patch storage.EntryPatch) error {
	if err := m.fail("UpdateEntry"); err != nil {
		return err
	}
	n := m.findNote(noteID)
	if n == nil {
		return storage.ErrNotFound
	}
	for i := range n.Entries {
		if n.Entries[i].ID != entryID {
			continue
		}
		e := &n.Entries[i]
		if patch.Content != nil {
			e.Content = *patch.Content
		}
		if patch.Formats != nil {
			e.Formats = append([]models.EntryFormat(nil), *patch.Formats...)
		}
		if patch.Data != nil {
			e.Data = patch.Data
		}
		if patch.EditedAt != nil {
			e.EditedAt = patch.EditedAt
		}
		if patch.IsEdited != nil {
			e.IsEdited = *patch.IsEdited
		}
		return nil
	}
	return storage.ErrNotFound
}

func (m *memStore) DeleteEntry(_ context.Context, noteID, entryID string) error {
	if err := m.fail("DeleteEntry"); err != nil {
		return err
	}
	n := m.findNote(noteID)
	if n == nil {
		return storage.ErrNotFound
	}
	for i := range n.Entries {
		if n.Entries[i].ID == entryID {
			n.Entries = append(n.Entries[:i], n.Entries[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) CreateTask(_ context.Context, noteID, description string) (string, error) {
	if err := m.fail("CreateTask"); err != nil {
		return "", err
	}
	n := m.findNote(noteID)
	if n == nil {
		return "", storage.ErrNotFound
	}
	t := models.Task{ID: m.id("task"), Description: description, Steps: []models.Step{}, CreatedAt: m.now()}
	n.Tasks = append(n.Tasks, t)
	return t.ID, nil
}

func (m *memStore) AddTaskStep(_ context.Context, noteID, taskID, description string) (string, error) {
	if err := m.fail("AddTaskStep"); err != nil {
		return "", err
	}
	t := m.findTask(taskID)
	if t == nil {
		return "", storage.ErrNotFound
	}
	s := models.Step{ID: m.id("step"), Description: description, CreatedAt: m.now()}
	t.Steps = append(t.Steps, s)
	return s.ID, nil
}

func (m *memStore) ToggleTaskStep(_ context.Context, taskID, stepID string) error {
	if err := m.fail("ToggleTaskStep"); err != nil {
		return err
	}
	t := m.findTask(taskID)
	if t == nil {
		return storage.ErrNotFound
	}
	if err := toggleStep(t.Steps, stepID, m.now()); err != nil {
		return err
	}
	t.RecomputeCompletion(m.now())
	return nil
}

func (m *memStore) DeleteTaskStep(_ context.Context, taskID, stepID string) error {
	if err := m.fail("DeleteTaskStep"); err != nil {
		return err
	}
	t := m.findTask(taskID)
	if t == nil {
		return storage.ErrNotFound
	}
	steps, err := deleteStep(t.Steps, stepID)
	if err != nil {
		return err
	}
	t.Steps = steps
	return nil
}

func (m *memStore) ToggleTask(_ context.Context, taskID string) error {
	if err := m.fail("ToggleTask"); err != nil {
		return err
	}
	t := m.findTask(taskID)
	if t == nil {
		return storage.ErrNotFound
	}
	t.IsCompleted = !t.IsCompleted
	if t.IsCompleted {
		at := m.now()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, taskID string) error {
	if err := m.fail("DeleteTask"); err != nil {
		return err
	}
	for _, n := range m.notes {
		for i := range n.Tasks {
			if n.Tasks[i].ID == taskID {
				n.Tasks = append(n.Tasks[:i], n.Tasks[i+1:]...)
				return nil
			}
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) CreateFolder(_ context.Context, name string, isAutoGenerated bool) (string, error) {
	if err := m.fail("CreateFolder"); err != nil {
		return "", err
	}
	for _, f := range m.folders {
		if strings.EqualFold(f.Name, name) {
			return "", storage.ErrDuplicateFolder
		}
	}
	f := &models.Folder{ID: m.id("folder"), Name: name, IsAutoGenerated: isAutoGenerated, CreatedAt: m.now()}
	m.folders = append(m.folders, f)
	return f.ID, nil
}

func (m *memStore) GetAllFolders(_ context.Context) ([]*models.Folder, error) {
	if err := m.fail("GetAllFolders"); err != nil {
		return nil, err
	}
	out := make([]*models.Folder, len(m.folders))
	for i, f := range m.folders {
		cp := *f
		out[i] = &cp
	}
	return out, nil
}

func (m *memStore) DeleteFolder(_ context.Context, id string) error {
	if err := m.fail("DeleteFolder"); err != nil {
		return err
	}
	for i, f := range m.folders {
		if f.ID == id {
			m.folders = append(m.folders[:i], m.folders[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) CreateStandaloneTask(_ context.Context, description string) (string, error) {
	if err := m.fail("CreateStandaloneTask"); err != nil {
		return "", err
	}
	t := &models.StandaloneTask{
		ID:           m.id("stask"),
		Description:  description,
		Steps:        []models.Step{},
		Urgency:      models.UrgencyNone,
		CreatedAt:    m.now(),
		LastEditedAt: m.now(),
	}
	m.standalone = append(m.standalone, t)
	return t.ID, nil
}

func (m *memStore) GetAllStandaloneTasks(_ context.Context) ([]*models.StandaloneTask, error) {
	if err := m.fail("GetAllStandaloneTasks"); err != nil {
		return nil, err
	}
	out := make([]*models.StandaloneTask, len(m.standalone))
	for i, t := range m.standalone {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *memStore) UpdateStandaloneTask(_ context.Context, id string, patch storage.StandaloneTaskPatch) error {
	if err := m.fail("UpdateStandaloneTask"); err != nil {
		return err
	}
	t := m.findStandalone(id)
	if t == nil {
		return storage.ErrNotFound
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Urgency != nil {
		t.Urgency = *patch.Urgency
	}
	if patch.Importance != nil {
		t.Importance = *patch.Importance
	}
	if patch.SetDueDate {
		t.DueDate = patch.DueDate
	}
	if patch.SetReminderTime {
		t.ReminderTime = patch.ReminderTime
	}
	if patch.LastEditedAt != nil {
		t.LastEditedAt = *patch.LastEditedAt
	}
	return nil
}

func (m *memStore) ToggleStandaloneTask(_ context.Context, id string) error {
	if err := m.fail("ToggleStandaloneTask"); err != nil {
		return err
	}
	t := m.findStandalone(id)
	if t == nil {
		return storage.ErrNotFound
	}
	t.IsCompleted = !t.IsCompleted
	if t.IsCompleted {
		at := m.now()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	return nil
}

func (m *memStore) DeleteStandaloneTask(_ context.Context, id string) error {
	if err := m.fail("DeleteStandaloneTask"); err != nil {
		return err
	}
	for i, t := range m.standalone {
		if t.ID == id {
			m.standalone = append(m.standalone[:i], m.standalone[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) AddStandaloneTaskStep(_ context.Context, taskID, description string) (string, error) {
	if err := m.fail("AddStandaloneTaskStep"); err != nil {
		return "", err
	}
	t := m.findStandalone(taskID)
	if t == nil {
		return "", storage.ErrNotFound
	}
	s := models.Step{ID: m.id("step"), Description: description, CreatedAt: m.now()}
	t.Steps = append(t.Steps, s)
	return s.ID, nil
}

func (m *memStore) ToggleStandaloneTaskStep(_ context.Context, taskID, stepID string) error {
	if err := m.fail("ToggleStandaloneTaskStep"); err != nil {
		return err
	}
	t := m.findStandalone(taskID)
	if t == nil {
		return storage.ErrNotFound
	}
	if err := toggleStep(t.Steps, stepID, m.now()); err != nil {
		return err
	}
	task := models.Task{IsCompleted: t.IsCompleted, CompletedAt: t.CompletedAt, Steps: t.Steps}
	task.RecomputeCompletion(m.now())
	t.IsCompleted = task.IsCompleted
	t.CompletedAt = task.CompletedAt
	return nil
}

func (m *memStore) DeleteStandaloneTaskStep(_ context.Context, taskID, stepID string) error {
	if err := m.fail("DeleteStandaloneTaskStep"); err != nil {
		return err
	}
	t := m.findStandalone(taskID)
	if t == nil {
		return storage.ErrNotFound
	}
	steps, err := deleteStep(t.Steps, stepID)
	if err != nil {
		return err
	}
	t.Steps = steps
	return nil
}

// MigrateStandaloneTasksToNotes converts every standalone task into a note
// holding one task-formatted entry, mirroring the real backends.
func (m *memStore) MigrateStandaloneTasksToNotes(_ context.Context) error {
	if err := m.fail("MigrateStandaloneTasksToNotes"); err != nil {
		return err
	}
	for _, t := range m.standalone {
		task := models.Task{
			ID:          t.ID,
			Description: t.Description,
			IsCompleted: t.IsCompleted,
			CompletedAt: t.CompletedAt,
			Steps:       append([]models.Step(nil), t.Steps...),
			CreatedAt:   t.CreatedAt,
		}
		m.notes = append(m.notes, &models.Note{
			ID:       m.id("note"),
			Title:    t.Description,
			Hashtags: []string{},
			Entries: []models.Entry{{
				ID:        m.id("entry"),
				Content:   t.Description,
				Formats:   []models.EntryFormat{models.FormatTask},
				Data:      &models.FormatData{Task: &task},
				CreatedAt: t.CreatedAt,
			}},
			Tasks:         []models.Task{task},
			Urgency:       t.Urgency,
			Importance:    t.Importance,
			PrimaryFormat: models.FormatTask,
			CreatedAt:     t.CreatedAt,
			LastModified:  t.LastEditedAt,
		})
	}
	m.standalone = nil
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) findNote(id string) *models.Note {
	for _, n := range m.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (m *memStore) findTask(id string) *models.Task {
	for _, n := range m.notes {
		for i := range n.Tasks {
			if n.Tasks[i].ID == id {
				return &n.Tasks[i]
			}
		}
	}
	return nil
}

func (m *memStore) findStandalone(id string) *models.StandaloneTask {
	for _, t := range m.standalone {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func toggleStep(steps []models.Step, stepID string, now time.Time) error {
	for i := range steps {
		if steps[i].ID != stepID {
			continue
		}
		steps[i].IsCompleted = !steps[i].IsCompleted
		if steps[i].IsCompleted {
			at := now
			steps[i].CompletedAt = &at
		} else {
			steps[i].CompletedAt = nil
		}
		return nil
	}
	return storage.ErrNotFound
}

func deleteStep(steps []models.Step, stepID string) ([]models.Step, error) {
	for i := range steps {
		if steps[i].ID == stepID {
			return append(steps[:i], steps[i+1:]...), nil
		}
	}
	return nil, storage.ErrNotFound
}

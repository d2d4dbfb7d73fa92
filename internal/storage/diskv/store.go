// Package diskv is the embedded file-backed storage backend. Each note,
// folder, and standalone task is one JSON document on disk; a note document
// carries its entries and embedded tasks inline. Suitable for single-process
// local use with no database available.
//
// This backend does not implement the migration capability: converting
// standalone tasks needs multi-document atomicity the file store cannot
// give, so migration is left to the PostgreSQL backend.
package diskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

const (
	prefixNote       = "notes"
	prefixFolder     = "folders"
	prefixStandalone = "standalone"
)

// Store is the diskv-backed persistence layer. A single mutex serializes
// all operations; the file store has no transactions, so multi-document
// invariants are held by never interleaving writers.
type Store struct {
	mu     sync.Mutex
	d      *diskv.Diskv
	logger *zap.Logger
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open creates a store rooted at dataDir.
func Open(dataDir string, logger *zap.Logger) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := diskv.New(diskv.Options{
		BasePath:          dataDir,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
	logger.Info("file_store_opened", zap.String("data_dir", dataDir))
	return &Store{d: d, logger: logger, now: time.Now}, nil
}

// Close is a no-op; diskv holds no open handles between operations.
func (s *Store) Close() error { return nil }

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.Join(append(pathKey.Path, pathKey.FileName), "/")
}

func key(prefix, id string) string {
	return prefix + "/" + id
}

func (s *Store) readJSON(k string, target any) error {
	val, err := s.d.Read(k)
	if err != nil {
		return storage.ErrNotFound
	}
	if err := json.Unmarshal(val, target); err != nil {
		return fmt.Errorf("corrupt document %s: %w", k, err)
	}
	return nil
}

func (s *Store) writeJSON(k string, doc any) error {
	val, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", k, err)
	}
	if err := s.d.Write(k, val); err != nil {
		return fmt.Errorf("write document %s: %w", k, err)
	}
	return nil
}

func (s *Store) keysWithPrefix(prefix string) []string {
	var keys []string
	for k := range s.d.KeysPrefix(prefix+"/", nil) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CreateNote writes a new note document.
func (s *Store) CreateNote(_ context.Context, note *models.Note) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := note.Clone()
	doc.ID = uuid.NewString()
	if doc.Entries == nil {
		doc.Entries = []models.Entry{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []models.Task{}
	}
	if err := s.writeJSON(key(prefixNote, doc.ID), doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// GetAllNotes reads every note document, ordered by creation time.
func (s *Store) GetAllNotes(_ context.Context) ([]*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notes []*models.Note
	for _, k := range s.keysWithPrefix(prefixNote) {
		note := &models.Note{}
		if err := s.readJSON(k, note); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes, nil
}

// GetNoteByID reads one note document.
func (s *Store) GetNoteByID(_ context.Context, id string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readNote(id)
}

func (s *Store) readNote(id string) (*models.Note, error) {
	note := &models.Note{}
	if err := s.readJSON(key(prefixNote, id), note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Store) mutateNote(id string, mutate func(*models.Note) error) error {
	note, err := s.readNote(id)
	if err != nil {
		return err
	}
	if err := mutate(note); err != nil {
		return err
	}
	return s.writeJSON(key(prefixNote, id), note)
}

// UpdateNote applies the non-nil patch fields.
func (s *Store) UpdateNote(_ context.Context, id string, patch storage.NotePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateNote(id, func(note *models.Note) error {
		if patch.Title != nil {
			note.Title = *patch.Title
		}
		if patch.Hashtags != nil {
			note.Hashtags = append([]string(nil), *patch.Hashtags...)
		}
		if patch.Urgency != nil {
			note.Urgency = *patch.Urgency
		}
		if patch.Importance != nil {
			note.Importance = *patch.Importance
		}
		if patch.PrimaryFormat != nil {
			note.PrimaryFormat = *patch.PrimaryFormat
		}
		if patch.LastModified != nil {
			note.LastModified = *patch.LastModified
		}
		return nil
	})
}

// DeleteNote removes a note document with its inline entries and tasks.
func (s *Store) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(prefixNote, id)
	if !s.d.Has(k) {
		return storage.ErrNotFound
	}
	if err := s.d.Erase(k); err != nil {
		return fmt.Errorf("erase document %s: %w", k, err)
	}
	return nil
}

// CreateEntry appends an entry to the note document.
func (s *Store) CreateEntry(_ context.Context, noteID string, entry *models.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.mutateNote(noteID, func(note *models.Note) error {
		e := entry.Clone()
		e.ID = id
		note.Entries = append(note.Entries, e)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateEntry applies the non-nil patch fields to one inline entry.
func (s *Store) UpdateEntry(_ context.Context, noteID, entryID string, patch storage.EntryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateNote(noteID, func(note *models.Note) error {
		for i := range note.Entries {
			if note.Entries[i].ID != entryID {
				continue
			}
			e := &note.Entries[i]
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
	})
}

// DeleteEntry removes one inline entry.
func (s *Store) DeleteEntry(_ context.Context, noteID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateNote(noteID, func(note *models.Note) error {
		for i := range note.Entries {
			if note.Entries[i].ID == entryID {
				note.Entries = append(note.Entries[:i], note.Entries[i+1:]...)
				return nil
			}
		}
		return storage.ErrNotFound
	})
}

// CreateTask adds an embedded task to the note document.
func (s *Store) CreateTask(_ context.Context, noteID, description string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.mutateNote(noteID, func(note *models.Note) error {
		note.Tasks = append(note.Tasks, models.Task{
			ID:          id,
			Description: description,
			Steps:       []models.Step{},
			CreatedAt:   s.now(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddTaskStep appends a step to an embedded task.
func (s *Store) AddTaskStep(_ context.Context, noteID, taskID, description string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.mutateNote(noteID, func(note *models.Note) error {
		task := findTask(note, taskID)
		if task == nil {
			return storage.ErrNotFound
		}
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

// ToggleTaskStep flips a step and re-derives the embedded task's completion.
func (s *Store) ToggleTaskStep(_ context.Context, taskID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	noteID, err := s.noteOwningTask(taskID)
	if err != nil {
		return err
	}
	return s.mutateNote(noteID, func(note *models.Note) error {
		task := findTask(note, taskID)
		if task == nil {
			return storage.ErrNotFound
		}
		if err := toggleStep(task.Steps, stepID, s.now()); err != nil {
			return err
		}
		task.RecomputeCompletion(s.now())
		return nil
	})
}

// DeleteTaskStep removes a step from an embedded task.
func (s *Store) DeleteTaskStep(_ context.Context, taskID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	noteID, err := s.noteOwningTask(taskID)
	if err != nil {
		return err
	}
	return s.mutateNote(noteID, func(note *models.Note) error {
		task := findTask(note, taskID)
		if task == nil {
			return storage.ErrNotFound
		}
		for i := range task.Steps {
			if task.Steps[i].ID == stepID {
				task.Steps = append(task.Steps[:i], task.Steps[i+1:]...)
				return nil
			}
		}
		return storage.ErrNotFound
	})
}

// ToggleTask flips an embedded task's completion state directly.
func (s *Store) ToggleTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	noteID, err := s.noteOwningTask(taskID)
	if err != nil {
		return err
	}
	return s.mutateNote(noteID, func(note *models.Note) error {
		task := findTask(note, taskID)
		if task == nil {
			return storage.ErrNotFound
		}
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

// DeleteTask removes an embedded task from its owning note.
func (s *Store) DeleteTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	noteID, err := s.noteOwningTask(taskID)
	if err != nil {
		return err
	}
	return s.mutateNote(noteID, func(note *models.Note) error {
		for i := range note.Tasks {
			if note.Tasks[i].ID == taskID {
				note.Tasks = append(note.Tasks[:i], note.Tasks[i+1:]...)
				return nil
			}
		}
		return storage.ErrNotFound
	})
}

func (s *Store) noteOwningTask(taskID string) (string, error) {
	for _, k := range s.keysWithPrefix(prefixNote) {
		note := &models.Note{}
		if err := s.readJSON(k, note); err != nil {
			return "", err
		}
		if findTask(note, taskID) != nil {
			return note.ID, nil
		}
	}
	return "", storage.ErrNotFound
}

func findTask(note *models.Note, taskID string) *models.Task {
	for i := range note.Tasks {
		if note.Tasks[i].ID == taskID {
			return &note.Tasks[i]
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

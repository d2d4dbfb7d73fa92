// Package engine implements the note/entry/task synchronization and
// derivation core: hashtag-to-folder reconciliation, the merged task view,
// due-date classification, optimistic step editing, and the one-shot
// standalone-task migration.
//
// The engine owns an in-memory snapshot of all notes, folders, and
// standalone tasks. Every mutating action writes through the storage port
// and then reloads the snapshot wholesale, so memory never drifts from the
// backing store. Actions are serialized behind one mutex; mutations run to
// completion before the next begins.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// Engine is the application-state object behind every screen action.
type Engine struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	notes      []*models.Note
	folders    []*models.Folder
	standalone []*models.StandaloneTask
}

// New creates an engine on top of the given store.
func New(store storage.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Load populates the in-memory snapshot from the store.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reload(ctx)
}

// reload replaces the full snapshot from the store. Callers hold e.mu.
func (e *Engine) reload(ctx context.Context) error {
	notes, err := e.store.GetAllNotes(ctx)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	folders, err := e.store.GetAllFolders(ctx)
	if err != nil {
		return fmt.Errorf("load folders: %w", err)
	}
	standalone, err := e.store.GetAllStandaloneTasks(ctx)
	if err != nil {
		return fmt.Errorf("load standalone tasks: %w", err)
	}
	e.notes = notes
	e.folders = folders
	e.standalone = standalone
	return nil
}

// Notes returns the current note snapshot sorted by urgency, importance,
// and last-modified time.
func (e *Engine) Notes() []*models.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.Note, len(e.notes))
	copy(out, e.notes)
	sortNotesByPriority(out)
	return out
}

// NoteByID returns a note from the snapshot.
func (e *Engine) NoteByID(id string) (*models.Note, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.notes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Folders returns the current folder snapshot.
func (e *Engine) Folders() []*models.Folder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.Folder, len(e.folders))
	copy(out, e.folders)
	return out
}

// StandaloneTasks returns the current standalone-task snapshot.
func (e *Engine) StandaloneTasks() []*models.StandaloneTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.StandaloneTask, len(e.standalone))
	copy(out, e.standalone)
	return out
}

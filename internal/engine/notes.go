package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateNote creates an empty note and returns its id.
func (e *Engine) CreateNote(ctx context.Context, title string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	note := &models.Note{
		Title:         title,
		Hashtags:      []string{},
		Urgency:       models.UrgencyNone,
		Importance:    0,
		PrimaryFormat: models.FormatNote,
		CreatedAt:     now,
		LastModified:  now,
	}
	id, err := e.store.CreateNote(ctx, note)
	if err != nil {
		return "", fmt.Errorf("create note: %w", err)
	}
	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateNote applies a partial note update (title, urgency, importance,
// primary format). Hashtags are derived and cannot be set through here.
func (e *Engine) UpdateNote(ctx context.Context, id string, patch storage.NotePatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	patch.Hashtags = nil
	now := e.now()
	patch.LastModified = &now
	if err := e.store.UpdateNote(ctx, id, patch); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return e.reload(ctx)
}

// DeleteNote deletes a note, its entries, and its embedded tasks, then
// removes any auto-generated folders orphaned by the deletion.
func (e *Engine) DeleteNote(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if err := e.cleanupFolders(ctx); err != nil {
		return err
	}
	return e.reload(ctx)
}

// AddEntry appends a timestamped entry to a note's timeline, then runs the
// reconcile and cleanup passes so derived hashtags and folders stay in sync.
func (e *Engine) AddEntry(ctx context.Context, noteID, content string, formats []models.EntryFormat, data *models.FormatData) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(formats) == 0 {
		formats = []models.EntryFormat{models.FormatNote}
	}
	entry := &models.Entry{
		Content:   content,
		Formats:   formats,
		Data:      data,
		CreatedAt: e.now(),
	}
	id, err := e.store.CreateEntry(ctx, noteID, entry)
	if err != nil {
		return "", fmt.Errorf("add entry: %w", err)
	}
	if err := e.syncAfterEntryMutation(ctx, noteID); err != nil {
		return "", err
	}
	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateEntry edits an entry in place, marking it edited, then re-derives
// hashtags and folders for the owning note.
func (e *Engine) UpdateEntry(ctx context.Context, noteID, entryID string, patch storage.EntryPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	edited := true
	patch.EditedAt = &now
	patch.IsEdited = &edited
	if err := e.store.UpdateEntry(ctx, noteID, entryID, patch); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if err := e.syncAfterEntryMutation(ctx, noteID); err != nil {
		return err
	}
	return e.reload(ctx)
}

// DeleteEntry removes an entry and re-derives hashtags and folders. Tags
// that appeared only in the deleted entry drop off the note, and folders
// they auto-created are cleaned up globally.
func (e *Engine) DeleteEntry(ctx context.Context, noteID, entryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteEntry(ctx, noteID, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := e.syncAfterEntryMutation(ctx, noteID); err != nil {
		return err
	}
	return e.reload(ctx)
}

// syncAfterEntryMutation is the strictly ordered derivation sequence that
// follows every entry mutation: recompute the note's hashtag set from all
// entries, auto-create missing folders, commit the new set, then run the
// global cleanup pass. Callers hold e.mu.
func (e *Engine) syncAfterEntryMutation(ctx context.Context, noteID string) error {
	note, err := e.store.GetNoteByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("sync hashtags: %w", err)
	}
	folders, err := e.store.GetAllFolders(ctx)
	if err != nil {
		return fmt.Errorf("sync hashtags: %w", err)
	}

	res := Reconcile(note, folders, e.now())

	for _, name := range res.FoldersToCreate {
		if _, err := e.store.CreateFolder(ctx, name, true); err != nil {
			if errors.Is(err, storage.ErrDuplicateFolder) {
				// Concurrent tag reuse across notes; the folder is there.
				e.logger.Debug("folder_already_exists", zap.String("name", name))
				continue
			}
			return fmt.Errorf("auto-create folder %q: %w", name, err)
		}
		e.logger.Info("folder_auto_created", zap.String("name", name))
	}

	patch := storage.NotePatch{
		Hashtags:     &res.Hashtags,
		LastModified: &res.LastModified,
	}
	if err := e.store.UpdateNote(ctx, noteID, patch); err != nil {
		return fmt.Errorf("commit hashtags: %w", err)
	}

	return e.cleanupFolders(ctx)
}

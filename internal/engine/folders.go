package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/hashtag"
	"github.com/noted-app/noted-api/internal/models"
)

// ReconcileResult is the outcome of recomputing a note's derived hashtag
// set against the folder registry.
type ReconcileResult struct {
	// Hashtags is the full recomputed set, first-occurrence casing
	// preserved, deduplicated case-insensitively.
	Hashtags []string
	// FoldersToCreate lists recomputed tags with no folder of that name
	// (case-insensitive) in the registry.
	FoldersToCreate []string
	// LastModified is the timestamp to commit alongside the new set.
	LastModified time.Time
}

// Reconcile recomputes a note's hashtag set by extracting tags from every
// entry, not incrementally, so the derived set self-heals after any edit or
// delete. Pure; the caller applies the side effects.
func Reconcile(note *models.Note, folders []*models.Folder, now time.Time) ReconcileResult {
	seen := make(map[string]struct{})
	var tags []string
	for i := range note.Entries {
		for _, tag := range hashtag.Extract(note.Entries[i].Content) {
			key := strings.ToLower(tag)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	registry := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		registry[strings.ToLower(f.Name)] = struct{}{}
	}
	var missing []string
	for _, tag := range tags {
		if _, ok := registry[strings.ToLower(tag)]; !ok {
			missing = append(missing, tag)
		}
	}

	return ReconcileResult{
		Hashtags:        tags,
		FoldersToCreate: missing,
		LastModified:    now,
	}
}

// OrphanedFolders returns the auto-generated folders whose name appears in
// no note's hashtag set (case-insensitive). Manually created folders are
// always cleanup-exempt. Pure.
func OrphanedFolders(notes []*models.Note, folders []*models.Folder) []*models.Folder {
	union := make(map[string]struct{})
	for _, n := range notes {
		for _, tag := range n.Hashtags {
			union[strings.ToLower(tag)] = struct{}{}
		}
	}
	var orphaned []*models.Folder
	for _, f := range folders {
		if !f.IsAutoGenerated {
			continue
		}
		if _, ok := union[strings.ToLower(f.Name)]; !ok {
			orphaned = append(orphaned, f)
		}
	}
	return orphaned
}

// cleanupFolders runs the global cleanup pass: any auto-generated folder
// whose name matches no current hashtag across all notes is deleted. Runs
// after every entry mutation, not just deletions, so creating then
// immediately deleting content in one entry leaves no stale folder.
// Callers hold e.mu.
func (e *Engine) cleanupFolders(ctx context.Context) error {
	notes, err := e.store.GetAllNotes(ctx)
	if err != nil {
		return fmt.Errorf("folder cleanup: %w", err)
	}
	folders, err := e.store.GetAllFolders(ctx)
	if err != nil {
		return fmt.Errorf("folder cleanup: %w", err)
	}
	for _, f := range OrphanedFolders(notes, folders) {
		if err := e.store.DeleteFolder(ctx, f.ID); err != nil {
			return fmt.Errorf("delete orphaned folder %q: %w", f.Name, err)
		}
		e.logger.Info("folder_cleaned_up", zap.String("name", f.Name))
	}
	return nil
}

// CreateFolder creates a manually managed folder, exempt from automatic
// cleanup.
func (e *Engine) CreateFolder(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.store.CreateFolder(ctx, name, false)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteFolder removes a folder from the registry.
func (e *Engine) DeleteFolder(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return e.reload(ctx)
}

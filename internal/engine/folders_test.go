package engine

import (
	"context"
	"testing"
	"time"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	e := New(store, nil)
	e.SetClock(store.now)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e, store
}

func folderNames(folders []*models.Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}

func TestAddEntry_AutoCreatesFolders(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	noteID, err := e.CreateNote(ctx, "groceries")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if _, err := e.AddEntry(ctx, noteID, "buy milk #Shopping and #errands", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	note, ok := e.NoteByID(noteID)
	if !ok {
		t.Fatal("note missing after reload")
	}
	wantTags := []string{"Shopping", "errands"}
	if len(note.Hashtags) != len(wantTags) {
		t.Fatalf("hashtags = %v, want %v", note.Hashtags, wantTags)
	}
	for i, tag := range wantTags {
		if note.Hashtags[i] != tag {
			t.Errorf("hashtags[%d] = %q, want %q", i, note.Hashtags[i], tag)
		}
	}

	folders := e.Folders()
	if len(folders) != 2 {
		t.Fatalf("folders = %v, want 2 auto-created", folderNames(folders))
	}
	for _, f := range folders {
		if !f.IsAutoGenerated {
			t.Errorf("folder %q should be auto-generated", f.Name)
		}
	}
}

func TestAddEntry_ReusedTagDoesNotDuplicateFolder(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, _ := e.CreateNote(ctx, "a")
	second, _ := e.CreateNote(ctx, "b")
	if _, err := e.AddEntry(ctx, first, "#Work item", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	// Same tag, different casing.
	if _, err := e.AddEntry(ctx, second, "#work again", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	folders := e.Folders()
	if len(folders) != 1 {
		t.Fatalf("folders = %v, want exactly one", folderNames(folders))
	}
	if folders[0].Name != "Work" {
		t.Errorf("folder name = %q, want first-seen casing %q", folders[0].Name, "Work")
	}
}

func TestUpdateEntry_RemovedTagCleansUpFolder(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	noteID, _ := e.CreateNote(ctx, "n")
	entryID, err := e.AddEntry(ctx, noteID, "plan #travel itinerary", nil, nil)
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if len(e.Folders()) != 1 {
		t.Fatalf("folders = %v, want travel folder", folderNames(e.Folders()))
	}

	content := "plan itinerary"
	if err := e.UpdateEntry(ctx, noteID, entryID, storage.EntryPatch{Content: &content}); err != nil {
		t.Fatalf("update entry: %v", err)
	}

	note, _ := e.NoteByID(noteID)
	if len(note.Hashtags) != 0 {
		t.Errorf("hashtags = %v, want empty after tag removal", note.Hashtags)
	}
	if got := e.Folders(); len(got) != 0 {
		t.Errorf("folders = %v, want orphaned folder removed", folderNames(got))
	}
	if !note.Entries[0].IsEdited {
		t.Error("entry should be flagged edited")
	}
}

func TestUpdateEntry_SharedTagSurvivesCleanup(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	keeper, _ := e.CreateNote(ctx, "keeper")
	editor, _ := e.CreateNote(ctx, "editor")
	if _, err := e.AddEntry(ctx, keeper, "#shared stays", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	entryID, err := e.AddEntry(ctx, editor, "#shared goes", nil, nil)
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	if err := e.DeleteEntry(ctx, editor, entryID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	folders := e.Folders()
	if len(folders) != 1 || folders[0].Name != "shared" {
		t.Fatalf("folders = %v, want shared folder kept", folderNames(folders))
	}
}

func TestDeleteNote_CleansUpOrphanedFolders(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	noteID, _ := e.CreateNote(ctx, "n")
	if _, err := e.AddEntry(ctx, noteID, "#solo tag", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := e.DeleteNote(ctx, noteID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if got := e.Folders(); len(got) != 0 {
		t.Errorf("folders = %v, want empty after note deletion", folderNames(got))
	}
}

func TestCleanup_ManualFoldersExempt(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateFolder(ctx, "archive"); err != nil {
		t.Fatalf("create folder: %v", err)
	}
	noteID, _ := e.CreateNote(ctx, "n")
	entryID, _ := e.AddEntry(ctx, noteID, "no tags here", nil, nil)
	// Any entry mutation triggers the cleanup pass.
	if err := e.DeleteEntry(ctx, noteID, entryID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	folders := e.Folders()
	if len(folders) != 1 || folders[0].Name != "archive" {
		t.Fatalf("folders = %v, want manual folder untouched", folderNames(folders))
	}
}

func TestReconcile_RecomputesFromScratch(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	note := &models.Note{
		// Stale cache with a tag no entry mentions anymore.
		Hashtags: []string{"stale"},
		Entries: []models.Entry{
			{Content: "#One first"},
			{Content: "#one again plus #two"},
		},
	}
	res := Reconcile(note, []*models.Folder{{Name: "one", IsAutoGenerated: true}}, now)

	if len(res.Hashtags) != 2 || res.Hashtags[0] != "One" || res.Hashtags[1] != "two" {
		t.Errorf("hashtags = %v, want [One two]", res.Hashtags)
	}
	if len(res.FoldersToCreate) != 1 || res.FoldersToCreate[0] != "two" {
		t.Errorf("folders to create = %v, want [two]", res.FoldersToCreate)
	}
	if !res.LastModified.Equal(now) {
		t.Errorf("last modified = %v, want %v", res.LastModified, now)
	}
}

func TestOrphanedFolders(t *testing.T) {
	t.Parallel()
	notes := []*models.Note{
		{Hashtags: []string{"Work"}},
		{Hashtags: []string{"home"}},
	}
	folders := []*models.Folder{
		{ID: "1", Name: "work", IsAutoGenerated: true},
		{ID: "2", Name: "home", IsAutoGenerated: true},
		{ID: "3", Name: "gone", IsAutoGenerated: true},
		{ID: "4", Name: "manual", IsAutoGenerated: false},
	}
	orphaned := OrphanedFolders(notes, folders)
	if len(orphaned) != 1 || orphaned[0].ID != "3" {
		t.Fatalf("orphaned = %v, want only the unreferenced auto folder", folderNames(orphaned))
	}
}

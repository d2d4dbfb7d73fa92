package engine

import (
	"context"
	"testing"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

func seedSearchNotes(t *testing.T, e *Engine) (workID, homeID string) {
	t.Helper()
	ctx := context.Background()

	workID, _ = e.CreateNote(ctx, "Quarterly planning")
	if _, err := e.AddEntry(ctx, workID, "draft OKRs #work", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	urgency := models.UrgencyHigh
	if err := e.UpdateNote(ctx, workID, storage.NotePatch{Urgency: &urgency}); err != nil {
		t.Fatalf("update note: %v", err)
	}

	homeID, _ = e.CreateNote(ctx, "Garden ideas")
	if _, err := e.AddEntry(ctx, homeID, "plant tomatoes #home", nil, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	return workID, homeID
}

func TestSearchNotes_ByQuery(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	workID, _ := seedSearchNotes(t, e)

	// Title match, case-insensitive.
	got := e.SearchNotes(NoteFilter{Query: "quarterly"})
	if len(got) != 1 || got[0].ID != workID {
		t.Fatalf("title search returned %d notes, want the planning note", len(got))
	}

	// Entry content match.
	got = e.SearchNotes(NoteFilter{Query: "TOMATOES"})
	if len(got) != 1 || got[0].Title != "Garden ideas" {
		t.Fatalf("content search returned %d notes, want the garden note", len(got))
	}

	// Hashtag match.
	got = e.SearchNotes(NoteFilter{Query: "work"})
	if len(got) != 1 || got[0].ID != workID {
		t.Fatalf("hashtag search returned %d notes, want the planning note", len(got))
	}

	if got = e.SearchNotes(NoteFilter{Query: "nothing matches"}); len(got) != 0 {
		t.Errorf("got %d notes for a miss, want 0", len(got))
	}
}

func TestSearchNotes_ByFolderAndFormat(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	workID, homeID := seedSearchNotes(t, e)

	got := e.SearchNotes(NoteFilter{Folder: "Work"})
	if len(got) != 1 || got[0].ID != workID {
		t.Fatalf("folder filter returned %d notes, want the work note", len(got))
	}

	format := models.FormatGoal
	if err := e.UpdateNote(context.Background(), homeID, storage.NotePatch{PrimaryFormat: &format}); err != nil {
		t.Fatalf("update note: %v", err)
	}
	got = e.SearchNotes(NoteFilter{Format: models.FormatGoal})
	if len(got) != 1 || got[0].ID != homeID {
		t.Fatalf("format filter returned %d notes, want the goal note", len(got))
	}

	// An entry carrying the format matches even when the note's primary
	// format differs.
	if _, err := e.AddEntry(context.Background(), workID, "ship the feature",
		[]models.EntryFormat{models.FormatProject}, nil); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	got = e.SearchNotes(NoteFilter{Format: models.FormatProject})
	if len(got) != 1 || got[0].ID != workID {
		t.Fatalf("entry format filter returned %d notes, want the work note", len(got))
	}
}

func TestNotes_SortedByPriority(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	workID, _ := seedSearchNotes(t, e)

	notes := e.Notes()
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(notes))
	}
	// The high-urgency note sorts first despite being older.
	if notes[0].ID != workID {
		t.Errorf("first note = %q, want the high-urgency one", notes[0].Title)
	}
}

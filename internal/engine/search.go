package engine

import (
	"sort"
	"strings"

	"github.com/noted-app/noted-api/internal/models"
)

// NoteFilter narrows the note list. Zero-value fields match everything.
type NoteFilter struct {
	// Query matches case-insensitively against note titles, entry
	// content, and hashtags.
	Query string
	// Folder keeps notes tagged with the folder's name.
	Folder string
	// Format keeps notes whose primary format matches or that carry an
	// entry tagged with the format.
	Format models.EntryFormat
}

// SearchNotes returns the notes matching the filter, in priority order.
func (e *Engine) SearchNotes(filter NoteFilter) []*models.Note {
	e.mu.Lock()
	defer e.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]*models.Note, 0, len(e.notes))
	for _, n := range e.notes {
		if filter.Folder != "" && !n.HasHashtag(filter.Folder) {
			continue
		}
		if filter.Format != "" && !noteHasFormat(n, filter.Format) {
			continue
		}
		if query != "" && !noteMatchesQuery(n, query) {
			continue
		}
		out = append(out, n)
	}
	sortNotesByPriority(out)
	return out
}

func noteMatchesQuery(n *models.Note, query string) bool {
	if strings.Contains(strings.ToLower(n.Title), query) {
		return true
	}
	for i := range n.Entries {
		if strings.Contains(strings.ToLower(n.Entries[i].Content), query) {
			return true
		}
	}
	for _, tag := range n.Hashtags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func noteHasFormat(n *models.Note, format models.EntryFormat) bool {
	if n.PrimaryFormat == format {
		return true
	}
	for i := range n.Entries {
		if n.Entries[i].HasFormat(format) {
			return true
		}
	}
	return false
}

// sortNotesByPriority orders notes like tasks minus the due-date key:
// urgency descending, importance descending, then most recently modified
// first. Stable for equal keys.
func sortNotesByPriority(notes []*models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if d := b.Urgency.Weight() - a.Urgency.Weight(); d != 0 {
			return d < 0
		}
		if d := b.Importance - a.Importance; d != 0 {
			return d < 0
		}
		return a.LastModified.After(b.LastModified)
	})
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateNote inserts a note and returns its generated id.
func (s *Store) CreateNote(ctx context.Context, note *models.Note) (string, error) {
	id := uuid.NewString()
	hashtagsJSON, err := json.Marshal(note.Hashtags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal hashtags: %w", err)
	}

	query := `
		INSERT INTO notes (id, title, hashtags, urgency, importance, primary_format, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		note.Title,
		hashtagsJSON,
		note.Urgency,
		note.Importance,
		note.PrimaryFormat,
		note.CreatedAt,
		note.LastModified,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	return id, nil
}

// GetAllNotes loads every note with its entries and embedded tasks.
func (s *Store) GetAllNotes(ctx context.Context) ([]*models.Note, error) {
	query := `
		SELECT id, title, hashtags, urgency, importance, primary_format, created_at, last_modified
		FROM notes
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	for _, note := range notes {
		if err := s.loadNoteChildren(ctx, note); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// GetNoteByID loads one note with its entries and embedded tasks.
func (s *Store) GetNoteByID(ctx context.Context, id string) (*models.Note, error) {
	query := `
		SELECT id, title, hashtags, urgency, importance, primary_format, created_at, last_modified
		FROM notes
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadNoteChildren(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// UpdateNote applies the non-nil patch fields.
func (s *Store) UpdateNote(ctx context.Context, id string, patch storage.NotePatch) error {
	query := "UPDATE notes SET "
	args := []any{id}
	argIndex := 2
	set := func(column string, value any) {
		if argIndex > 2 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Hashtags != nil {
		hashtagsJSON, err := json.Marshal(*patch.Hashtags)
		if err != nil {
			return fmt.Errorf("failed to marshal hashtags: %w", err)
		}
		set("hashtags", hashtagsJSON)
	}
	if patch.Urgency != nil {
		set("urgency", *patch.Urgency)
	}
	if patch.Importance != nil {
		set("importance", *patch.Importance)
	}
	if patch.PrimaryFormat != nil {
		set("primary_format", *patch.PrimaryFormat)
	}
	if patch.LastModified != nil {
		set("last_modified", *patch.LastModified)
	}
	if argIndex == 2 {
		return nil
	}
	query += " WHERE id = $1"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireRow(result)
}

// DeleteNote removes a note; entries and tasks cascade.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return requireRow(result)
}

// CreateEntry appends an entry to a note's timeline.
func (s *Store) CreateEntry(ctx context.Context, noteID string, entry *models.Entry) (string, error) {
	id := uuid.NewString()
	formatsJSON, err := json.Marshal(entry.Formats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal formats: %w", err)
	}
	var dataJSON []byte
	if entry.Data != nil {
		dataJSON, err = json.Marshal(entry.Data)
		if err != nil {
			return "", fmt.Errorf("failed to marshal format data: %w", err)
		}
	}

	query := `
		INSERT INTO entries (id, note_id, content, formats, data, created_at, is_edited)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`
	_, err = s.db.ExecContext(ctx, query, id, noteID, entry.Content, formatsJSON, dataJSON, entry.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create entry: %w", err)
	}
	return id, nil
}

// UpdateEntry applies the non-nil patch fields to one entry.
func (s *Store) UpdateEntry(ctx context.Context, noteID, entryID string, patch storage.EntryPatch) error {
	query := "UPDATE entries SET "
	args := []any{entryID, noteID}
	argIndex := 3
	set := func(column string, value any) {
		if argIndex > 3 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	if patch.Content != nil {
		set("content", *patch.Content)
	}
	if patch.Formats != nil {
		formatsJSON, err := json.Marshal(*patch.Formats)
		if err != nil {
			return fmt.Errorf("failed to marshal formats: %w", err)
		}
		set("formats", formatsJSON)
	}
	if patch.Data != nil {
		dataJSON, err := json.Marshal(patch.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal format data: %w", err)
		}
		set("data", dataJSON)
	}
	if patch.EditedAt != nil {
		set("edited_at", *patch.EditedAt)
	}
	if patch.IsEdited != nil {
		set("is_edited", *patch.IsEdited)
	}
	if argIndex == 3 {
		return nil
	}
	query += " WHERE id = $1 AND note_id = $2"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return requireRow(result)
}

// DeleteEntry removes one entry from a note's timeline.
func (s *Store) DeleteEntry(ctx context.Context, noteID, entryID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = $1 AND note_id = $2`, entryID, noteID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	note := &models.Note{}
	var hashtagsJSON []byte
	err := row.Scan(
		&note.ID,
		&note.Title,
		&hashtagsJSON,
		&note.Urgency,
		&note.Importance,
		&note.PrimaryFormat,
		&note.CreatedAt,
		&note.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	if err := json.Unmarshal(hashtagsJSON, &note.Hashtags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hashtags: %w", err)
	}
	return note, nil
}

func (s *Store) loadNoteChildren(ctx context.Context, note *models.Note) error {
	entries, err := s.loadEntries(ctx, note.ID)
	if err != nil {
		return err
	}
	note.Entries = entries

	tasks, err := s.loadTasks(ctx, note.ID)
	if err != nil {
		return err
	}
	note.Tasks = tasks
	return nil
}

func (s *Store) loadEntries(ctx context.Context, noteID string) ([]models.Entry, error) {
	query := `
		SELECT id, content, formats, data, created_at, edited_at, is_edited
		FROM entries
		WHERE note_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var entry models.Entry
		var formatsJSON, dataJSON []byte
		var editedAt sql.NullTime
		err := rows.Scan(&entry.ID, &entry.Content, &formatsJSON, &dataJSON, &entry.CreatedAt, &editedAt, &entry.IsEdited)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal(formatsJSON, &entry.Formats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal formats: %w", err)
		}
		if len(dataJSON) > 0 {
			entry.Data = &models.FormatData{}
			if err := json.Unmarshal(dataJSON, entry.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal format data: %w", err)
			}
		}
		if editedAt.Valid {
			entry.EditedAt = &editedAt.Time
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// requireRow turns a zero-row update or delete into ErrNotFound.
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

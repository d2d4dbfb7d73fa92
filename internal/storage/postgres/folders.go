package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateFolder inserts a folder. The unique index on LOWER(name) enforces
// the case-insensitive uniqueness invariant at the database level; a
// violation surfaces as ErrDuplicateFolder.
func (s *Store) CreateFolder(ctx context.Context, name string, isAutoGenerated bool) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO folders (id, name, is_auto_generated, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, id, name, isAutoGenerated, time.Now()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", storage.ErrDuplicateFolder
		}
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	return id, nil
}

// GetAllFolders loads the folder registry.
func (s *Store) GetAllFolders(ctx context.Context) ([]*models.Folder, error) {
	query := `
		SELECT id, name, is_auto_generated, created_at
		FROM folders
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		folder := &models.Folder{}
		err := rows.Scan(&folder.ID, &folder.Name, &folder.IsAutoGenerated, &folder.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}
	return folders, nil
}

// DeleteFolder removes a folder from the registry.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return requireRow(result)
}

package diskv

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// CreateFolder writes a folder document after checking the case-insensitive
// name invariant against the existing registry. The store mutex makes the
// check-then-write race-free within the process.
func (s *Store) CreateFolder(_ context.Context, name string, isAutoGenerated bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folders, err := s.readFolders()
	if err != nil {
		return "", err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, name) {
			return "", storage.ErrDuplicateFolder
		}
	}

	folder := &models.Folder{
		ID:              uuid.NewString(),
		Name:            name,
		IsAutoGenerated: isAutoGenerated,
		CreatedAt:       s.now(),
	}
	if err := s.writeJSON(key(prefixFolder, folder.ID), folder); err != nil {
		return "", err
	}
	return folder.ID, nil
}

// GetAllFolders reads the folder registry, ordered by name.
func (s *Store) GetAllFolders(_ context.Context) ([]*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFolders()
}

func (s *Store) readFolders() ([]*models.Folder, error) {
	var folders []*models.Folder
	for _, k := range s.keysWithPrefix(prefixFolder) {
		folder := &models.Folder{}
		if err := s.readJSON(k, folder); err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	sort.Slice(folders, func(i, j int) bool {
		return strings.ToLower(folders[i].Name) < strings.ToLower(folders[j].Name)
	})
	return folders, nil
}

// DeleteFolder removes a folder document.
func (s *Store) DeleteFolder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(prefixFolder, id)
	if !s.d.Has(k) {
		return storage.ErrNotFound
	}
	return s.d.Erase(k)
}

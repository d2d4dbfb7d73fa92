package storage

import (
	"errors"
)

var (
	// ErrNotFound indicates the referenced note, entry, task, step, or
	// folder does not exist. Actions abort on it; the engine never invents
	// a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateFolder indicates a folder create raced an existing name.
	// Tolerated during hashtag auto-creation: concurrent tag reuse across
	// notes is expected, not exceptional.
	ErrDuplicateFolder = errors.New("folder already exists")
)

package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("post not found")
	ErrFormat          = errors.New("invalid import format")
	ErrEmptyImport     = errors.New("no valid posts found in file")
	ErrNothingToExport = errors.New("no posts to export")
	ErrIDsExhausted    = errors.New("no post ids left above the highest stored id")
)

// ValidationError lists every field constraint a create or update request broke.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// StorageError wraps a persistence adapter failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotFound returns an error matching ErrNotFound for the given id.
func NotFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"postboard/internal/post/model"
	"postboard/pkg/logger"
)

// FileRepository keeps the collection in a JSON file on local disk.
type FileRepository struct {
	Path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{Path: path}
}

func (r *FileRepository) Save(ctx context.Context, posts []model.Post) error {
	data, err := encodeCollection(posts)
	if err != nil {
		return err
	}
	if err := r.writeAtomic(data); err != nil {
		logger.Sugar.Errorf("Failed to save posts to %s: %v", r.Path, err)
		return err
	}
	return nil
}

func (r *FileRepository) Load(ctx context.Context) ([]model.Post, error) {
	data, err := os.ReadFile(r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Post{}, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to read posts from %s: %v", r.Path, err)
		return nil, err
	}
	posts, err := decodeCollection(data)
	if err != nil {
		logger.Sugar.Errorf("Stored posts in %s are corrupt: %v", r.Path, err)
		return nil, err
	}
	return posts, nil
}

// writeAtomic writes to a sibling temp file and renames it over the target so a
// crash never leaves a half-written collection behind.
func (r *FileRepository) writeAtomic(data []byte) error {
	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		return fmt.Errorf("replace %s: %w", r.Path, err)
	}
	return nil
}

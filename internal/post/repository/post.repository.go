// Package repository holds the persistence adapters. Each one stores the whole
// post collection as a single JSON document under one key.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"postboard/internal/post/model"
)

// PostRepository is the durable load/save boundary of the post store.
type PostRepository interface {
	// Save replaces the stored collection.
	Save(ctx context.Context, posts []model.Post) error
	// Load returns the stored collection, or an empty slice when nothing is stored.
	Load(ctx context.Context) ([]model.Post, error)
}

func encodeCollection(posts []model.Post) ([]byte, error) {
	if posts == nil {
		posts = []model.Post{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return nil, fmt.Errorf("encode posts: %w", err)
	}
	return data, nil
}

func decodeCollection(data []byte) ([]model.Post, error) {
	posts := []model.Post{}
	if len(data) == 0 {
		return posts, nil
	}
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

package repository

import (
	"context"
	"errors"

	"postboard/internal/post/model"
	"postboard/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores the collection as a single string value.
type RedisRepository struct {
	Client *redis.Client
	Key    string
}

func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	return &RedisRepository{Client: client, Key: key}
}

func (r *RedisRepository) Save(ctx context.Context, posts []model.Post) error {
	data, err := encodeCollection(posts)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, r.Key, data, 0).Err(); err != nil {
		logger.Sugar.Errorf("Failed to save posts under redis key %s: %v", r.Key, err)
		return err
	}
	return nil
}

func (r *RedisRepository) Load(ctx context.Context) ([]model.Post, error) {
	data, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Post{}, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load posts under redis key %s: %v", r.Key, err)
		return nil, err
	}
	posts, err := decodeCollection(data)
	if err != nil {
		logger.Sugar.Errorf("Stored posts under redis key %s are corrupt: %v", r.Key, err)
		return nil, err
	}
	return posts, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postboard/internal/post/model"
	"postboard/pkg/logger"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const (
	postgresCreateTable = `CREATE TABLE IF NOT EXISTS post_collections (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	postgresSelect = `SELECT payload FROM post_collections WHERE name = $1`
	postgresUpsert = `INSERT INTO post_collections (name, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	sqliteCreateTable = `CREATE TABLE IF NOT EXISTS post_collections (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	sqliteSelect = `SELECT payload FROM post_collections WHERE name = ?`
	sqliteUpsert = `INSERT INTO post_collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
)

type sqlQueries struct {
	createTable string
	selectOne   string
	upsert      string
}

var dialectQueries = map[Dialect]sqlQueries{
	DialectPostgres: {createTable: postgresCreateTable, selectOne: postgresSelect, upsert: postgresUpsert},
	DialectSQLite:   {createTable: sqliteCreateTable, selectOne: sqliteSelect, upsert: sqliteUpsert},
}

// SQLRepository stores the collection as one row of the post_collections table.
type SQLRepository struct {
	DB      *sql.DB
	Key     string
	queries sqlQueries
}

func NewSQLRepository(db *sql.DB, dialect Dialect, key string) (*SQLRepository, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &SQLRepository{DB: db, Key: key, queries: q}, nil
}

// EnsureSchema creates the post_collections table when it does not exist.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, r.queries.createTable); err != nil {
		logger.Sugar.Errorf("Failed to create post_collections table: %v", err)
		return err
	}
	return nil
}

func (r *SQLRepository) Save(ctx context.Context, posts []model.Post) error {
	data, err := encodeCollection(posts)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, r.queries.upsert, r.Key, string(data), time.Now().UTC())
	if err != nil {
		logger.Sugar.Errorf("Failed to save posts under key %s: %v", r.Key, err)
	}
	return err
}

func (r *SQLRepository) Load(ctx context.Context) ([]model.Post, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, r.queries.selectOne, r.Key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Post{}, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load posts under key %s: %v", r.Key, err)
		return nil, err
	}
	posts, err := decodeCollection([]byte(payload))
	if err != nil {
		logger.Sugar.Errorf("Stored posts under key %s are corrupt: %v", r.Key, err)
		return nil, err
	}
	return posts, nil
}

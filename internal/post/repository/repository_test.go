package repository

import (
	"context"
	"testing"
	"time"

	"postboard/internal/post/model"

	"github.com/stretchr/testify/require"
)

func samplePosts() []model.Post {
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	posts := []model.Post{
		{ID: 1748770200000, Title: "Morning run", Content: "Five km along the river", Author: "Ann", Category: "Health", CreatedAt: created},
		{ID: 1748770200001, Title: "Lunch spot", Content: "Noodles again", Author: "Bob", Category: "Food", CreatedAt: created.Add(3 * time.Hour)},
	}
	for i := range posts {
		posts[i].RefreshCounts()
	}
	return posts
}

// exerciseRepository checks the load/save contract every adapter must honour.
func exerciseRepository(t *testing.T, repo PostRepository) {
	t.Helper()
	ctx := context.Background()

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Empty(t, loaded)

	posts := samplePosts()
	require.NoError(t, repo.Save(ctx, posts))

	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, posts, loaded)

	require.NoError(t, repo.Save(ctx, posts[:1]))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, posts[:1], loaded)

	require.NoError(t, repo.Save(ctx, nil))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Empty(t, loaded)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"postboard/internal/post/model"
	"postboard/internal/post/repository"
	"postboard/internal/post/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct{}

func (failingRepo) Save(ctx context.Context, posts []model.Post) error { return errors.New("disk full") }
func (failingRepo) Load(ctx context.Context) ([]model.Post, error) { return []model.Post{}, nil }

func newHandler(t *testing.T) *PostHandler {
	repo := repository.NewFileRepository(filepath.Join(t.TempDir(), "posts.json"))
	return NewPostHandler(service.NewPostService(repo, model.DefaultCategories))
}

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func createPost(t *testing.T, h *PostHandler, title, category string) model.Post {
	body := `{"title":"` + title + `","content":"Some content here","author":"Ann","category":"` + category + `"}`
	rr := do(h.CreatePost, http.MethodPost, "/api/posts/create", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var p model.Post
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	return p
}

func TestCreatePost(t *testing.T) {
	h := newHandler(t)
	p := createPost(t, h, "  Hello world ", "Technology")

	assert.NotZero(t, p.ID)
	assert.Equal(t, "Hello world", p.Title)
	assert.Equal(t, 3, p.WordCount)
	assert.Equal(t, 17, p.CharCount)
}

func TestCreatePostErrors(t *testing.T) {
	h := newHandler(t)

	rr := do(h.CreatePost, http.MethodGet, "/api/posts/create", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(h.CreatePost, http.MethodPost, "/api/posts/create", "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h.CreatePost, http.MethodPost, "/api/posts/create", `{"title":"Hi","content":"x","author":"A","category":"Food"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "title must be at least 3 characters")
}

func TestCreatePostStorageFailure(t *testing.T) {
	h := NewPostHandler(service.NewPostService(failingRepo{}, model.DefaultCategories))
	rr := do(h.CreatePost, http.MethodPost, "/api/posts/create", `{"title":"Hello","content":"x","author":"Ann","category":"Food"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, h.Service.GetAll())
}

func TestGetPostsQuery(t *testing.T) {
	h := newHandler(t)
	createPost(t, h, "Banana bread", "Food")
	createPost(t, h, "Apple pie", "Food")
	createPost(t, h, "Go tips", "Technology")

	rr := do(h.GetPosts, http.MethodGet, "/api/posts?category=Food&sort=titleAZ", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var posts []model.Post
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "Apple pie", posts[0].Title)
	assert.Equal(t, "Banana bread", posts[1].Title)

	rr = do(h.GetPosts, http.MethodGet, "/api/posts?search=GO", "")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Go tips", posts[0].Title)

	rr = do(h.GetPosts, http.MethodGet, "/api/posts?sort=random", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPostsEmptyIsArray(t *testing.T) {
	h := newHandler(t)
	rr := do(h.GetPosts, http.MethodGet, "/api/posts", "")
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestGetUpdateDeletePost(t *testing.T) {
	h := newHandler(t)
	p := createPost(t, h, "Original", "Food")
	id := strconv.FormatInt(p.ID, 10)

	rr := do(h.GetPost, http.MethodGet, "/api/posts/get?id="+id, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h.UpdatePost, http.MethodPut, "/api/posts/update?id="+id, `{"title":"Renamed","content":"New body","author":"Bob","category":"Travel"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated model.Post
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, p.ID, updated.ID)
	assert.True(t, p.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "Renamed", updated.Title)

	rr = do(h.DeletePost, http.MethodDelete, "/api/posts/delete?id="+id, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(h.GetPost, http.MethodGet, "/api/posts/get?id="+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(h.DeletePost, http.MethodDelete, "/api/posts/delete?id="+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(h.UpdatePost, http.MethodPut, "/api/posts/update?id="+id, `{"title":"Renamed","content":"x","author":"Bob","category":"Travel"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPostIDParameter(t *testing.T) {
	h := newHandler(t)

	rr := do(h.GetPost, http.MethodGet, "/api/posts/get", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h.DeletePost, http.MethodDelete, "/api/posts/delete?id=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClearAndStats(t *testing.T) {
	h := newHandler(t)
	createPost(t, h, "First post", "Food")
	createPost(t, h, "Second post", "Food")

	rr := do(h.GetStats, http.MethodGet, "/api/posts/stats", "")
	var stats model.Stats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 2, stats.TotalPosts)
	assert.Equal(t, "Food", stats.MostUsedCategory)

	rr = do(h.ClearPosts, http.MethodDelete, "/api/posts/clear", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(h.GetStats, http.MethodGet, "/api/posts/stats", "")
	assert.JSONEq(t, `{"totalPosts":0,"uniqueCategories":0,"totalWords":0,"totalCharacters":0,"avgWordsPerPost":0,"mostUsedCategory":"N/A"}`, rr.Body.String())
}

func TestExportAndImport(t *testing.T) {
	h := newHandler(t)

	rr := do(h.ExportPosts, http.MethodGet, "/api/posts/export", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	createPost(t, h, "Exported post", "Food")
	rr = do(h.ExportPosts, http.MethodGet, "/api/posts/export", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="blog-posts-\d{4}-\d{2}-\d{2}\.json"$`, rr.Header().Get("Content-Disposition"))
	exported := rr.Body.String()

	other := newHandler(t)
	rr = do(other.ImportPosts, http.MethodPost, "/api/posts/import", exported)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"added":1,"discarded":0,"duplicates":0}`, rr.Body.String())

	rr = do(other.ImportPosts, http.MethodPost, "/api/posts/import", exported)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"added":0,"discarded":0,"duplicates":1}`, rr.Body.String())
}

func TestImportErrors(t *testing.T) {
	h := newHandler(t)

	rr := do(h.ImportPosts, http.MethodPost, "/api/posts/import", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h.ImportPosts, http.MethodPost, "/api/posts/import", `[{"id":1,"title":""}]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestImportTooLarge(t *testing.T) {
	h := newHandler(t)
	body := "[" + strings.Repeat(" ", MaxImportSize) + "]"

	rr := do(h.ImportPosts, http.MethodPost, "/api/posts/import", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Empty(t, h.Service.GetAll())
}

func TestCreateWhenIDsExhausted(t *testing.T) {
	h := newHandler(t)
	rr := do(h.ImportPosts, http.MethodPost, "/api/posts/import",
		`[{"id": 9223372036854775807, "title": "Last", "content": "c", "author": "Ann", "category": "Food", "createdAt": "2024-01-01"}]`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h.CreatePost, http.MethodPost, "/api/posts/create", `{"title":"Hello","content":"x","author":"Ann","category":"Food"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetCategories(t *testing.T) {
	h := newHandler(t)
	rr := do(h.GetCategories, http.MethodGet, "/api/categories", "")

	var categories []string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&categories))
	assert.Equal(t, model.DefaultCategories, categories)
}

func TestFeed(t *testing.T) {
	h := newHandler(t)

	rr := do(h.Feed, http.MethodGet, "/feed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "No blog posts yet")

	createPost(t, h, "Visible post", "Food")
	rr = do(h.Feed, http.MethodGet, "/feed?category=Travel", "")
	assert.Contains(t, rr.Body.String(), "No blog posts yet")

	rr = do(h.Feed, http.MethodGet, "/feed?category=all", "")
	assert.Contains(t, rr.Body.String(), "Visible post")
}

package query

import (
	"testing"
	"time"

	"postboard/internal/post/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func post(id int64, title, content, author, category string, ageHours int) model.Post {
	p := model.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		Author:    author,
		Category:  category,
		CreatedAt: base.Add(time.Duration(ageHours) * time.Hour),
	}
	p.RefreshCounts()
	return p
}

func titles(posts []model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestProjectEmpty(t *testing.T) {
	got := Project(nil, model.QueryParams{Search: "x", Category: "Food", Sort: model.SortTitleAsc})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProjectSortByTitle(t *testing.T) {
	posts := []model.Post{
		post(1, "Banana", "b", "Ann", "Food", 0),
		post(2, "Apple", "a", "Ann", "Food", 1),
	}

	assert.Equal(t, []string{"Apple", "Banana"}, titles(Project(posts, model.QueryParams{Sort: model.SortTitleAsc})))
	assert.Equal(t, []string{"Banana", "Apple"}, titles(Project(posts, model.QueryParams{Sort: model.SortTitleDesc})))
}

func TestProjectTitleSortIsLocaleAware(t *testing.T) {
	posts := []model.Post{
		post(1, "Banana", "b", "Ann", "Food", 0),
		post(2, "apple", "a", "Ann", "Food", 1),
		post(3, "Éclair", "e", "Ann", "Food", 2),
	}

	got := Project(posts, model.QueryParams{Sort: model.SortTitleAsc})
	assert.Equal(t, []string{"apple", "Banana", "Éclair"}, titles(got))
}

func TestProjectSortByDate(t *testing.T) {
	posts := []model.Post{
		post(1, "Middle", "x", "Ann", "Food", 5),
		post(2, "Oldest", "x", "Ann", "Food", 0),
		post(3, "Newest", "x", "Ann", "Food", 10),
	}

	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, titles(Project(posts, model.QueryParams{Sort: model.SortNewest})))
	assert.Equal(t, []string{"Oldest", "Middle", "Newest"}, titles(Project(posts, model.QueryParams{Sort: model.SortOldest})))
}

func TestProjectSortIsStable(t *testing.T) {
	posts := []model.Post{
		post(1, "Same", "first", "Ann", "Food", 0),
		post(2, "Same", "second", "Ann", "Food", 0),
		post(3, "Same", "third", "Ann", "Food", 0),
	}

	for _, key := range []model.SortKey{model.SortNewest, model.SortOldest, model.SortTitleAsc, model.SortTitleDesc} {
		got := Project(posts, model.QueryParams{Sort: key})
		require.Len(t, got, 3)
		assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID}, "sort %s", key)
	}
}

func TestProjectSearch(t *testing.T) {
	posts := []model.Post{
		post(1, "Categories 101", "intro", "Ann", "Education", 0),
		post(2, "Dogs", "no match", "Ann", "Lifestyle", 1),
		post(3, "Weekend", "A CATalogue of trips", "Ann", "Travel", 2),
		post(4, "Recipes", "soup", "Catherine", "Food", 3),
	}

	got := Project(posts, model.QueryParams{Search: "cat", Sort: model.SortOldest})
	assert.Equal(t, []string{"Categories 101", "Weekend", "Recipes"}, titles(got))
}

func TestProjectSearchTrimsQuery(t *testing.T) {
	posts := []model.Post{post(1, "Categories 101", "intro", "Ann", "Education", 0)}
	assert.Len(t, Project(posts, model.QueryParams{Search: "  CAT  "}), 1)
}

func TestProjectCategoryFilter(t *testing.T) {
	posts := []model.Post{
		post(1, "One", "x", "Ann", "Food", 0),
		post(2, "Two", "x", "Ann", "Travel", 1),
		post(3, "Three", "x", "Ann", "Food", 2),
	}

	tests := []struct {
		name     string
		category string
		want     []string
	}{
		{"empty keeps all", "", []string{"One", "Two", "Three"}},
		{"all sentinel keeps all", "all", []string{"One", "Two", "Three"}},
		{"all sentinel any case", "ALL", []string{"One", "Two", "Three"}},
		{"exact match", "Food", []string{"One", "Three"}},
		{"no partial match", "Foo", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(posts, model.QueryParams{Category: tt.category, Sort: model.SortOldest})
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestProjectFiltersBeforeSorting(t *testing.T) {
	posts := []model.Post{
		post(1, "Zebra travel", "x", "Ann", "Travel", 0),
		post(2, "Apple pie", "x", "Ann", "Food", 1),
		post(3, "Avocado toast", "x", "Ann", "Food", 2),
	}

	got := Project(posts, model.QueryParams{Category: "Food", Sort: model.SortTitleDesc})
	assert.Equal(t, []string{"Avocado toast", "Apple pie"}, titles(got))
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	posts := []model.Post{
		post(1, "Banana", "b", "Ann", "Food", 0),
		post(2, "Apple", "a", "Ann", "Food", 1),
	}
	snapshot := model.Clone(posts)

	_ = Project(posts, model.QueryParams{Sort: model.SortTitleAsc})
	assert.Equal(t, snapshot, posts)
}

func TestProjectUnknownSortKeepsOrder(t *testing.T) {
	posts := []model.Post{
		post(1, "Banana", "b", "Ann", "Food", 0),
		post(2, "Apple", "a", "Ann", "Food", 1),
	}
	assert.Equal(t, []string{"Banana", "Apple"}, titles(Project(posts, model.QueryParams{Sort: "random"})))
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		input   string
		want    model.SortKey
		wantErr bool
	}{
		{"", model.SortNewest, false},
		{"newest", model.SortNewest, false},
		{"oldest", model.SortOldest, false},
		{"titleAsc", model.SortTitleAsc, false},
		{"titleDesc", model.SortTitleDesc, false},
		{"titleAZ", model.SortTitleAsc, false},
		{"titleZA", model.SortTitleDesc, false},
		{"popular", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, model.Stats{MostUsedCategory: model.NoCategory}, ComputeStats(nil))
}

func TestComputeStats(t *testing.T) {
	posts := []model.Post{
		post(1, "One", "a b c", "Ann", "A", 0),
		post(2, "Two", "d e", "Ann", "A", 1),
		post(3, "Three", "f g h i", "Ann", "B", 2),
	}

	stats := ComputeStats(posts)
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 2, stats.UniqueCategories)
	assert.Equal(t, 9, stats.TotalWords)
	assert.Equal(t, 3, stats.AvgWordsPerPost)
	assert.Equal(t, "A", stats.MostUsedCategory)
	assert.Equal(t, 5+3+7, stats.TotalCharacters)
}

func TestComputeStatsRoundsAverage(t *testing.T) {
	posts := []model.Post{
		post(1, "One", "a b", "Ann", "A", 0),
		post(2, "Two", "c", "Ann", "B", 1),
	}
	// 3 words over 2 posts rounds half away from zero.
	assert.Equal(t, 2, ComputeStats(posts).AvgWordsPerPost)
}

func TestComputeStatsTieGoesToFirstCategory(t *testing.T) {
	posts := []model.Post{
		post(1, "One", "x", "Ann", "Travel", 0),
		post(2, "Two", "x", "Ann", "Food", 1),
		post(3, "Three", "x", "Ann", "Food", 2),
		post(4, "Four", "x", "Ann", "Travel", 3),
	}
	assert.Equal(t, "Travel", ComputeStats(posts).MostUsedCategory)
}

// Package query computes the filtered, sorted projection of a post collection and
// its aggregate statistics. Nothing here mutates its input.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"postboard/internal/post/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ParseSortKey resolves a sort name, including the legacy titleAZ/titleZA names.
// An empty name selects newest first.
func ParseSortKey(s string) (model.SortKey, error) {
	switch key := model.SortKey(strings.TrimSpace(s)); key {
	case "":
		return model.SortNewest, nil
	case model.SortNewest, model.SortOldest, model.SortTitleAsc, model.SortTitleDesc:
		return key, nil
	case "titleAZ":
		return model.SortTitleAsc, nil
	case "titleZA":
		return model.SortTitleDesc, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Project filters posts by search text and category, then orders them by the sort key.
// Search text matches title, content or author, case-insensitively.
// An unknown sort key keeps the filtered input order.
func Project(posts []model.Post, params model.QueryParams) []model.Post {
	search := strings.ToLower(strings.TrimSpace(params.Search))
	category := strings.TrimSpace(params.Category)
	if strings.EqualFold(category, model.AllCategories) {
		category = ""
	}

	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if search != "" && !matches(p, search) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}

	switch params.Sort {
	case model.SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	case model.SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case model.SortTitleAsc:
		c := newCollator()
		sort.SliceStable(out, func(i, j int) bool { return c.CompareString(out[i].Title, out[j].Title) < 0 })
	case model.SortTitleDesc:
		c := newCollator()
		sort.SliceStable(out, func(i, j int) bool { return c.CompareString(out[i].Title, out[j].Title) > 0 })
	}
	return out
}

func matches(p model.Post, search string) bool {
	return strings.Contains(strings.ToLower(p.Title), search) ||
		strings.Contains(strings.ToLower(p.Content), search) ||
		strings.Contains(strings.ToLower(p.Author), search)
}

// A Collator keeps scratch buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English)
}

// ComputeStats aggregates the collection. An empty collection yields zero counts and
// model.NoCategory as the most used category.
func ComputeStats(posts []model.Post) model.Stats {
	stats := model.Stats{MostUsedCategory: model.NoCategory}
	if len(posts) == 0 {
		return stats
	}

	counts := make(map[string]int)
	var order []string
	for _, p := range posts {
		stats.TotalWords += p.WordCount
		stats.TotalCharacters += p.CharCount
		if _, seen := counts[p.Category]; !seen {
			order = append(order, p.Category)
		}
		counts[p.Category]++
	}

	stats.TotalPosts = len(posts)
	stats.UniqueCategories = len(counts)
	stats.AvgWordsPerPost = int(math.Round(float64(stats.TotalWords) / float64(len(posts))))

	best := 0
	for _, c := range order {
		if counts[c] > best {
			best = counts[c]
			stats.MostUsedCategory = c
		}
	}
	return stats
}

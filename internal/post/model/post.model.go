package model

import (
	"strings"
	"time"
)

// DefaultCategories is the category enumeration used when none is configured.
var DefaultCategories = []string{
	"Technology",
	"Lifestyle",
	"Business",
	"Travel",
	"Food",
	"Health",
	"Education",
	"Entertainment",
	"Sports",
	"Other",
}

// Post is one user-authored entry. WordCount and CharCount are derived from Content.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	WordCount int       `json:"wordCount"`
	CharCount int       `json:"charCount"`
}

// PostFields are the user-editable fields of a post.
type PostFields struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// Normalize trims surrounding whitespace from every field.
func (f PostFields) Normalize() PostFields {
	return PostFields{
		Title:    strings.TrimSpace(f.Title),
		Content:  strings.TrimSpace(f.Content),
		Author:   strings.TrimSpace(f.Author),
		Category: strings.TrimSpace(f.Category),
	}
}

// Apply copies the fields onto the post and recomputes the derived counts.
func (p *Post) Apply(f PostFields) {
	p.Title = f.Title
	p.Content = f.Content
	p.Author = f.Author
	p.Category = f.Category
	p.RefreshCounts()
}

// RefreshCounts recomputes WordCount and CharCount from Content.
func (p *Post) RefreshCounts() {
	p.WordCount = CountWords(p.Content)
	p.CharCount = CountChars(p.Content)
}

// CountWords returns the number of whitespace-delimited tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CountChars returns the length of the trimmed text in characters.
func CountChars(s string) int {
	return len([]rune(strings.TrimSpace(s)))
}

// Clone returns a copy of posts that shares no backing array with the input.
func Clone(posts []Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	return out
}

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortTitleAsc  SortKey = "titleAsc"
	SortTitleDesc SortKey = "titleDesc"
)

// AllCategories is the category filter sentinel.
const AllCategories = "all"

// QueryParams selects and orders the projection shown to the reader.
type QueryParams struct {
	Search   string  `json:"search"`
	Category string  `json:"category"`
	Sort     SortKey `json:"sort"`
}

// NoCategory is reported as the most used category of an empty collection.
const NoCategory = "N/A"

type Stats struct {
	TotalPosts       int    `json:"totalPosts"`
	UniqueCategories int    `json:"uniqueCategories"`
	TotalWords       int    `json:"totalWords"`
	TotalCharacters  int    `json:"totalCharacters"`
	AvgWordsPerPost  int    `json:"avgWordsPerPost"`
	MostUsedCategory string `json:"mostUsedCategory"`
}

type ChangeType string

const (
	PostCreated   ChangeType = "POST_CREATED"
	PostUpdated   ChangeType = "POST_UPDATED"
	PostDeleted   ChangeType = "POST_DELETED"
	PostsCleared  ChangeType = "POSTS_CLEARED"
	PostsImported ChangeType = "POSTS_IMPORTED"
)

// ChangeEvent describes a committed mutation of the collection.
type ChangeEvent struct {
	Type   ChangeType `json:"type"`
	PostID int64      `json:"post_id,omitempty"`
	Count  int        `json:"count,omitempty"`
	Stats  Stats      `json:"stats"`
}

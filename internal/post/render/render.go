// Package render turns a projected post list into the HTML feed page.
package render

import (
	"bytes"
	"html/template"
	"io"

	"postboard/internal/post/model"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	ContentType = "text/html; charset=utf-8"
	DateLayout  = "Jan 2, 2006"
	EmptyState  = "No blog posts yet"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(), // raw HTML is cleaned by policy below
		),
	)
	policy = bluemonday.UGCPolicy()
)

// MarkdownToHTML converts post content to HTML that is safe to embed in the page.
func MarkdownToHTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(policy.Sanitize(buf.String())), nil
}

type card struct {
	model.Post
	Body template.HTML
	Date string
}

type page struct {
	Posts      []card
	Stats      model.Stats
	EmptyState string
}

var feedTemplate = template.Must(template.New("feed").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Posts</title>
</head>
<body>
<section class="stats">
<span class="stat">{{.Stats.TotalPosts}} posts</span>
<span class="stat">{{.Stats.UniqueCategories}} categories</span>
<span class="stat">{{.Stats.TotalWords}} words</span>
<span class="stat">{{.Stats.TotalCharacters}} characters</span>
<span class="stat">{{.Stats.AvgWordsPerPost}} words per post</span>
<span class="stat">Top category: {{.Stats.MostUsedCategory}}</span>
</section>
<main class="posts">
{{- range .Posts}}
<article class="post" data-id="{{.ID}}">
<span class="category">{{.Category}}</span>
<h2 class="title">{{.Title}}</h2>
<p class="meta">By {{.Author}} on <time datetime="{{.CreatedAt.Format "2006-01-02T15:04:05Z07:00"}}">{{.Date}}</time></p>
<div class="content">{{.Body}}</div>
<p class="counts">{{.WordCount}} words · {{.CharCount}} characters</p>
</article>
{{- else}}
<p class="empty">{{.EmptyState}}</p>
{{- end}}
</main>
</body>
</html>
`))

// Feed writes the HTML page for posts, in the given order, with stats.
// Every user-supplied field is escaped; content is Markdown sanitised with the
// UGC policy.
func Feed(w io.Writer, posts []model.Post, stats model.Stats) error {
	p := page{Posts: make([]card, 0, len(posts)), Stats: stats, EmptyState: EmptyState}
	for _, post := range posts {
		body, err := MarkdownToHTML(post.Content)
		if err != nil {
			return err
		}
		p.Posts = append(p.Posts, card{Post: post, Body: body, Date: post.CreatedAt.Format(DateLayout)})
	}
	return feedTemplate.Execute(w, p)
}

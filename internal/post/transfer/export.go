// Package transfer serializes the post collection for export and reconciles
// imported collections with the local one.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"postboard/internal/post/model"
)

// ContentType is the media type of an exported collection.
const ContentType = "application/json"

// Marshal produces the export document: the collection as a JSON array indented
// with two spaces, field values untouched (no HTML escaping). The output is valid
// Reconcile input.
func Marshal(posts []model.Post) ([]byte, error) {
	if posts == nil {
		posts = []model.Post{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return nil, fmt.Errorf("marshal posts: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FileName names an export file after the UTC date of t.
func FileName(t time.Time) string {
	return fmt.Sprintf("blog-posts-%s.json", t.UTC().Format("2006-01-02"))
}

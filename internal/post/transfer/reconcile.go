package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"postboard/internal/post/model"
)

// Result describes a successful merge.
type Result struct {
	Merged         []model.Post `json:"-"`
	Added          []model.Post `json:"-"`
	AddedCount     int          `json:"added"`
	DiscardedCount int          `json:"discarded"`
	DuplicateCount int          `json:"duplicates"`
}

// Reconcile merges an untrusted serialized collection into existing.
//
// The payload must be a JSON array of objects (model.ErrFormat otherwise). Records
// missing any required field are dropped and counted as discarded; if none remain
// the import fails with model.ErrEmptyImport. Records whose id is already present,
// locally or earlier in the payload, are dropped and counted as duplicates: existing
// records always win. Titles, authors and categories are not checked against the
// create rules. Reconcile neither mutates existing nor persists anything.
func Reconcile(existing []model.Post, raw []byte) (*Result, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFormat, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: payload is not an array", model.ErrFormat)
	}

	valid := make([]model.Post, 0, len(records))
	result := &Result{}
	for i, rec := range records {
		trimmed := bytes.TrimSpace(rec)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", model.ErrFormat, i)
		}
		p, ok := decodeRecord(trimmed)
		if !ok {
			result.DiscardedCount++
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return nil, model.ErrEmptyImport
	}

	seen := make(map[int64]struct{}, len(existing)+len(valid))
	for _, p := range existing {
		seen[p.ID] = struct{}{}
	}
	added := make([]model.Post, 0, len(valid))
	for _, p := range valid {
		if _, dup := seen[p.ID]; dup {
			result.DuplicateCount++
			continue
		}
		seen[p.ID] = struct{}{}
		added = append(added, p)
	}

	merged := make([]model.Post, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	merged = append(merged, added...)

	result.Merged = merged
	result.Added = added
	result.AddedCount = len(added)
	return result, nil
}

// importedRecord mirrors model.Post loosely so that presence and type can be checked
// field by field. Older export files carry the timestamp as "date".
type importedRecord struct {
	ID        *json.Number `json:"id"`
	Title     *string      `json:"title"`
	Content   *string      `json:"content"`
	Author    *string      `json:"author"`
	Category  *string      `json:"category"`
	CreatedAt *string      `json:"createdAt"`
	Date      *string      `json:"date"`
}

func decodeRecord(raw []byte) (model.Post, bool) {
	var rec importedRecord
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return model.Post{}, false
	}

	if rec.ID == nil {
		return model.Post{}, false
	}
	id, err := rec.ID.Int64()
	if err != nil || id == 0 {
		return model.Post{}, false
	}

	fields := []*string{rec.Title, rec.Content, rec.Author, rec.Category}
	for _, f := range fields {
		if f == nil || strings.TrimSpace(*f) == "" {
			return model.Post{}, false
		}
	}

	stamp := rec.CreatedAt
	if stamp == nil || *stamp == "" {
		stamp = rec.Date
	}
	if stamp == nil || *stamp == "" {
		return model.Post{}, false
	}
	createdAt, ok := parseTimestamp(*stamp)
	if !ok {
		return model.Post{}, false
	}

	p := model.Post{
		ID:        id,
		Title:     *rec.Title,
		Content:   *rec.Content,
		Author:    *rec.Author,
		Category:  *rec.Category,
		CreatedAt: createdAt,
	}
	p.RefreshCounts()
	return p, true
}

// timestampLayouts are the ISO-8601 forms accepted besides RFC 3339: date only,
// basic-format offsets and missing zones (read as UTC).
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

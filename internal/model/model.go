// Package model holds the persisted entities of the bookmark hub core.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a Task row.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
	TaskFail    TaskStatus = "fail"
)

// Task is a unit of ingestion work leased from the bookmark_task table.
type Task struct {
	TaskID       uuid.UUID
	UserID       uuid.UUID
	URL          string
	Status       TaskStatus
	Tags         []string
	Summary      *string
	NextDelivery time.Time
	Retries      int
	FailReason   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Bookmark is a user's saved, ingested page.
type Bookmark struct {
	BookmarkID  string
	UserID      uuid.UUID
	URL         string
	Domain      string
	Title       string
	TextContent string
	Tags        []string
	Summary     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is a bounded text window over a bookmark's body, the unit of vector retrieval.
type Chunk struct {
	ChunkID    uuid.UUID
	BookmarkID string
	UserID     uuid.UUID
	ChunkIndex int
	ChunkText  string
	Embedding  []float32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RagSession is the audit trail of one retrieval-augmented question.
type RagSession struct {
	SessionID      uuid.UUID
	UserID         uuid.UUID
	Question       string
	Answer         *string
	RelevantChunks []uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Page is a cursor-based pagination request over (created_at DESC, id).
type Page struct {
	After    *time.Time
	AfterID  string
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Normalize clamps PageSize to [1, MaxPageSize], defaulting to DefaultPageSize.
func (p Page) Normalize() Page {
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// TagCount is one facet bucket returned by tag_counts.
type TagCount struct {
	Tag   string
	Count int64
}

// SearchHit is one lexical search result with its relevance snippet.
type SearchHit struct {
	Bookmark    Bookmark
	Rank        float64
	SearchMatch string
}

// SemanticHit is one bookmark surfaced by vector search, keeping its best-scoring chunk.
type SemanticHit struct {
	Bookmark   Bookmark
	ChunkID    uuid.UUID
	ChunkText  string
	Similarity float64
}

// NormalizeTags lowercases, trims, collapses internal whitespace to a single
// hyphen, and de-duplicates tags while preserving first-seen order. Shared by
// the ingestion pipeline and the tag-mutation API handlers so set_tags/
// append_tags and ingested tags go through the same rule.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		t = strings.Join(strings.Fields(t), "-")
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// UnionTags merges new into existing, preserving existing's order and
// appending first-seen-order new tags, de-duplicating across both (§4.1's
// "lexical union of old and new, preserving first-seen order").
func UnionTags(existing, new []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(new))
	out := make([]string, 0, len(existing)+len(new))
	for _, t := range existing {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range new {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Package store defines the Storage Gateway: typed, per-user-scoped access
// to the relational+vector store, plus the task queue primitives it backs.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

// Gateway is the typed access layer every other core component depends on.
// Every method takes the acting user_id and must never return another
// user's rows. Implementations must make every mutation atomic: it either
// completes in full or leaves the store unchanged.
type Gateway interface {
	// UpsertBookmark inserts a new bookmark, or if (user_id, url) already
	// exists, unions tags and touches updated_at without overwriting
	// title/text/summary unless they were previously empty (§4.5).
	UpsertBookmark(ctx context.Context, b model.Bookmark) (model.Bookmark, error)

	// GetBookmark returns a single bookmark scoped to user_id.
	GetBookmark(ctx context.Context, userID uuid.UUID, bookmarkID string) (model.Bookmark, error)

	// GetBookmarkByURL looks up a bookmark by its exact URL. The ingestion
	// pipeline does not call it; UpsertBookmark does its own lookup.
	GetBookmarkByURL(ctx context.Context, userID uuid.UUID, url string) (*model.Bookmark, error)

	// ListBookmarks pages bookmarks for a user by (created_at DESC, bookmark_id).
	ListBookmarks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Bookmark, error)

	// DeleteBookmarkCascade removes a bookmark and all its chunks.
	DeleteBookmarkCascade(ctx context.Context, userID uuid.UUID, bookmarkID string) error

	// SetTags replaces a bookmark's tag set exactly.
	SetTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error)

	// AppendTags unions new tags onto a bookmark's existing set, preserving
	// first-seen order.
	AppendTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error)

	// ReplaceChunks atomically deletes all existing chunks for
	// (bookmarkID, userID) and inserts the given chunks in one transaction.
	ReplaceChunks(ctx context.Context, userID uuid.UUID, bookmarkID string, chunks []model.Chunk) error

	// NearestChunks returns the k nearest chunks to queryVector within a user's
	// scope, ordered by cosine distance ascending (most similar first).
	NearestChunks(ctx context.Context, userID uuid.UUID, queryVector []float32, k int) ([]model.SemanticHit, error)

	// LexicalSearch runs a weighted full-text query against title/body/tags.
	// An empty tsquery lists all of the user's bookmarks by created_at DESC.
	LexicalSearch(ctx context.Context, userID uuid.UUID, tsquery string, k int) ([]model.SearchHit, error)

	// TagCounts returns per-tag bookmark counts for a user, sorted by count
	// desc then tag asc.
	TagCounts(ctx context.Context, userID uuid.UUID) ([]model.TagCount, error)

	// BookmarksByTag returns a user's bookmarks containing the given tag,
	// newest first.
	BookmarksByTag(ctx context.Context, userID uuid.UUID, tag string) ([]model.Bookmark, error)

	// Task queue primitives, see §4.2.
	TaskQueue

	// CreateRagSession records a new question in PENDING-answer state.
	CreateRagSession(ctx context.Context, userID uuid.UUID, question string) (model.RagSession, error)

	// UpdateRagSession fills in the answer and the chunk ids used to ground it.
	UpdateRagSession(ctx context.Context, userID, sessionID uuid.UUID, answer string, relevantChunks []uuid.UUID) (model.RagSession, error)

	// ListRagSessions returns a user's RAG sessions, newest first.
	ListRagSessions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RagSession, error)

	Close()
}

// TaskQueue is the durable, leased queue over the bookmark_task table (§4.2).
type TaskQueue interface {
	// Enqueue creates a new PENDING task. Enqueue does not deduplicate;
	// the ingestion pipeline idempotently upserts bookmarks instead (§4.5).
	Enqueue(ctx context.Context, userID uuid.UUID, url string, tags []string) (model.Task, error)

	// Lease atomically claims at most one PENDING task whose next_delivery
	// has elapsed, ordered by next_delivery then created_at, and stamps its
	// next_delivery forward by visibility so no other worker can lease it
	// until the window elapses.
	Lease(ctx context.Context, now time.Time, visibility time.Duration) (*model.Task, error)

	// AckSuccess marks a task DONE.
	AckSuccess(ctx context.Context, taskID uuid.UUID) error

	// AckRetry increments retries and either reschedules the task (PENDING,
	// next_delivery pushed out by backoff) or marks it FAIL if the retry
	// budget (MaxRetries) is exhausted.
	AckRetry(ctx context.Context, taskID uuid.UUID, nextDelivery time.Time, maxRetries int) error

	// AckFatal marks a task FAIL immediately with the given reason.
	AckFatal(ctx context.Context, taskID uuid.UUID, reason string) error

	// GetTask fetches a task by id, scoped to its owning user.
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error)
}

package search_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

// fakeStore implements store.Gateway, returning canned lexical/semantic
// results and recording the tsquery it was called with.
type fakeStore struct {
	lexicalHits   []model.SearchHit
	lastTSQuery   string
	semanticHits  []model.SemanticHit
	tagCounts     []model.TagCount
	bookmarksTags map[string][]model.Bookmark
}

func (f *fakeStore) UpsertBookmark(ctx context.Context, b model.Bookmark) (model.Bookmark, error) {
	return b, nil
}
func (f *fakeStore) GetBookmark(ctx context.Context, userID uuid.UUID, bookmarkID string) (model.Bookmark, error) {
	return model.Bookmark{}, nil
}
func (f *fakeStore) GetBookmarkByURL(ctx context.Context, userID uuid.UUID, url string) (*model.Bookmark, error) {
	return nil, nil
}
func (f *fakeStore) ListBookmarks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Bookmark, error) {
	return nil, nil
}
func (f *fakeStore) DeleteBookmarkCascade(ctx context.Context, userID uuid.UUID, bookmarkID string) error {
	return nil
}
func (f *fakeStore) SetTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error) {
	return model.Bookmark{}, nil
}
func (f *fakeStore) AppendTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error) {
	return model.Bookmark{}, nil
}
func (f *fakeStore) ReplaceChunks(ctx context.Context, userID uuid.UUID, bookmarkID string, chunks []model.Chunk) error {
	return nil
}
func (f *fakeStore) NearestChunks(ctx context.Context, userID uuid.UUID, queryVector []float32, k int) ([]model.SemanticHit, error) {
	return f.semanticHits, nil
}
func (f *fakeStore) LexicalSearch(ctx context.Context, userID uuid.UUID, tsquery string, k int) ([]model.SearchHit, error) {
	f.lastTSQuery = tsquery
	return f.lexicalHits, nil
}
func (f *fakeStore) TagCounts(ctx context.Context, userID uuid.UUID) ([]model.TagCount, error) {
	return f.tagCounts, nil
}
func (f *fakeStore) BookmarksByTag(ctx context.Context, userID uuid.UUID, tag string) ([]model.Bookmark, error) {
	return f.bookmarksTags[tag], nil
}
func (f *fakeStore) Enqueue(ctx context.Context, userID uuid.UUID, url string, tags []string) (model.Task, error) {
	return model.Task{}, nil
}
func (f *fakeStore) Lease(ctx context.Context, now time.Time, visibility time.Duration) (*model.Task, error) {
	return nil, nil
}
func (f *fakeStore) AckSuccess(ctx context.Context, taskID uuid.UUID) error { return nil }
func (f *fakeStore) AckRetry(ctx context.Context, taskID uuid.UUID, nextDelivery time.Time, maxRetries int) error {
	return nil
}
func (f *fakeStore) AckFatal(ctx context.Context, taskID uuid.UUID, reason string) error { return nil }
func (f *fakeStore) GetTask(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error) {
	return model.Task{}, nil
}
func (f *fakeStore) CreateRagSession(ctx context.Context, userID uuid.UUID, question string) (model.RagSession, error) {
	return model.RagSession{}, nil
}
func (f *fakeStore) UpdateRagSession(ctx context.Context, userID, sessionID uuid.UUID, answer string, relevantChunks []uuid.UUID) (model.RagSession, error) {
	return model.RagSession{}, nil
}
func (f *fakeStore) ListRagSessions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RagSession, error) {
	return nil, nil
}
func (f *fakeStore) Close() {}

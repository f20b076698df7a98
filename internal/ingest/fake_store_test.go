package ingest_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

// fakeGateway implements store.Gateway, recording the bookmark and chunks
// the ingestion pipeline persists.
type fakeGateway struct {
	upserted model.Bookmark
	chunks   []model.Chunk
}

func (f *fakeGateway) UpsertBookmark(ctx context.Context, b model.Bookmark) (model.Bookmark, error) {
	f.upserted = b
	return b, nil
}
func (f *fakeGateway) GetBookmark(ctx context.Context, userID uuid.UUID, bookmarkID string) (model.Bookmark, error) {
	return model.Bookmark{}, nil
}
func (f *fakeGateway) GetBookmarkByURL(ctx context.Context, userID uuid.UUID, url string) (*model.Bookmark, error) {
	return nil, nil
}
func (f *fakeGateway) ListBookmarks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Bookmark, error) {
	return nil, nil
}
func (f *fakeGateway) DeleteBookmarkCascade(ctx context.Context, userID uuid.UUID, bookmarkID string) error {
	return nil
}
func (f *fakeGateway) SetTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error) {
	return model.Bookmark{}, nil
}
func (f *fakeGateway) AppendTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error) {
	return model.Bookmark{}, nil
}
func (f *fakeGateway) ReplaceChunks(ctx context.Context, userID uuid.UUID, bookmarkID string, chunks []model.Chunk) error {
	f.chunks = chunks
	return nil
}
func (f *fakeGateway) NearestChunks(ctx context.Context, userID uuid.UUID, queryVector []float32, k int) ([]model.SemanticHit, error) {
	return nil, nil
}
func (f *fakeGateway) LexicalSearch(ctx context.Context, userID uuid.UUID, tsquery string, k int) ([]model.SearchHit, error) {
	return nil, nil
}
func (f *fakeGateway) TagCounts(ctx context.Context, userID uuid.UUID) ([]model.TagCount, error) {
	return nil, nil
}
func (f *fakeGateway) BookmarksByTag(ctx context.Context, userID uuid.UUID, tag string) ([]model.Bookmark, error) {
	return nil, nil
}
func (f *fakeGateway) Enqueue(ctx context.Context, userID uuid.UUID, url string, tags []string) (model.Task, error) {
	return model.Task{}, nil
}
func (f *fakeGateway) Lease(ctx context.Context, now time.Time, visibility time.Duration) (*model.Task, error) {
	return nil, nil
}
func (f *fakeGateway) AckSuccess(ctx context.Context, taskID uuid.UUID) error { return nil }
func (f *fakeGateway) AckRetry(ctx context.Context, taskID uuid.UUID, nextDelivery time.Time, maxRetries int) error {
	return nil
}
func (f *fakeGateway) AckFatal(ctx context.Context, taskID uuid.UUID, reason string) error { return nil }
func (f *fakeGateway) GetTask(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error) {
	return model.Task{}, nil
}
func (f *fakeGateway) CreateRagSession(ctx context.Context, userID uuid.UUID, question string) (model.RagSession, error) {
	return model.RagSession{}, nil
}
func (f *fakeGateway) UpdateRagSession(ctx context.Context, userID, sessionID uuid.UUID, answer string, relevantChunks []uuid.UUID) (model.RagSession, error) {
	return model.RagSession{}, nil
}
func (f *fakeGateway) ListRagSessions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RagSession, error) {
	return nil, nil
}
func (f *fakeGateway) Close() {}

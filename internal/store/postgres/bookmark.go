package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

const bookmarkColumns = `bookmark_id, user_id, url, domain, title, text_content, tags, summary, created_at, updated_at`

func scanBookmark(row pgx.Row) (model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(&b.BookmarkID, &b.UserID, &b.URL, &b.Domain, &b.Title, &b.TextContent, &b.Tags, &b.Summary, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// UpsertBookmark inserts a new bookmark row, or on (user_id, url) conflict
// unions the tag sets and touches updated_at without clobbering non-empty
// title/text/summary (§4.5 stage 8). The tag union is read-then-merge in Go
// rather than a SQL array_agg(DISTINCT ...), which sorts instead of
// preserving first-seen order (§4.1).
func (s *Store) UpsertBookmark(ctx context.Context, b model.Bookmark) (model.Bookmark, error) {
	const selectExistingTags = `SELECT tags FROM bookmark WHERE user_id = $1 AND url = $2`
	var existing []string
	err := s.pool.QueryRow(ctx, selectExistingTags, b.UserID, b.URL).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return model.Bookmark{}, fmt.Errorf("reading existing tags: %w", errors.Join(apperr.Internal, err))
	}
	tags := model.UnionTags(existing, b.Tags)

	const sql = `
	INSERT INTO bookmark (bookmark_id, user_id, url, domain, title, text_content, tags, summary, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	ON CONFLICT (user_id, url) DO UPDATE SET
		title        = CASE WHEN bookmark.title = '' THEN EXCLUDED.title ELSE bookmark.title END,
		text_content = CASE WHEN bookmark.text_content = '' THEN EXCLUDED.text_content ELSE bookmark.text_content END,
		summary      = COALESCE(bookmark.summary, EXCLUDED.summary),
		tags         = EXCLUDED.tags,
		updated_at   = now()
	RETURNING ` + bookmarkColumns

	row := s.pool.QueryRow(ctx, sql, b.BookmarkID, b.UserID, b.URL, b.Domain, b.Title, b.TextContent, tags, b.Summary)
	out, err := scanBookmark(row)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("upserting bookmark: %w", errors.Join(apperr.Internal, err))
	}
	return out, nil
}

func (s *Store) GetBookmark(ctx context.Context, userID uuid.UUID, bookmarkID string) (model.Bookmark, error) {
	const sql = `SELECT ` + bookmarkColumns + ` FROM bookmark WHERE user_id = $1 AND bookmark_id = $2`
	row := s.pool.QueryRow(ctx, sql, userID, bookmarkID)
	b, err := scanBookmark(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bookmark{}, fmt.Errorf("bookmark %s: %w", bookmarkID, apperr.NotFound)
	}
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("getting bookmark: %w", errors.Join(apperr.Internal, err))
	}
	return b, nil
}

func (s *Store) GetBookmarkByURL(ctx context.Context, userID uuid.UUID, url string) (*model.Bookmark, error) {
	const sql = `SELECT ` + bookmarkColumns + ` FROM bookmark WHERE user_id = $1 AND url = $2`
	row := s.pool.QueryRow(ctx, sql, userID, url)
	b, err := scanBookmark(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting bookmark by url: %w", errors.Join(apperr.Internal, err))
	}
	return &b, nil
}

func (s *Store) ListBookmarks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Bookmark, error) {
	page = page.Normalize()

	sql := `SELECT ` + bookmarkColumns + ` FROM bookmark WHERE user_id = $1`
	args := []any{userID}

	if page.After != nil {
		sql += fmt.Sprintf(` AND (created_at, bookmark_id) < ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, *page.After, page.AfterID)
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC, bookmark_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, page.PageSize)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", errors.Join(apperr.Internal, err))
	}
	defer rows.Close()

	var out []model.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", errors.Join(apperr.Internal, err))
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBookmarkCascade(ctx context.Context, userID uuid.UUID, bookmarkID string) error {
	const sql = `DELETE FROM bookmark WHERE user_id = $1 AND bookmark_id = $2`
	tag, err := s.pool.Exec(ctx, sql, userID, bookmarkID)
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", errors.Join(apperr.Internal, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookmark %s: %w", bookmarkID, apperr.NotFound)
	}
	return nil
}

// SetTags replaces a bookmark's tags with normalise(tags) (§8: set_tags(T) →
// get_bookmark yields tags = normalise(T)).
func (s *Store) SetTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error) {
	return s.updateTags(ctx, userID, bookmarkID, model.NormalizeTags(tags), nil)
}

// AppendTags unions normalise(tags) onto the existing tag set, preserving
// first-seen order (§4.1, §8).
func (s *Store) AppendTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string) (model.Bookmark, error) {
	return s.updateTags(ctx, userID, bookmarkID, model.NormalizeTags(tags), model.UnionTags)
}

// updateTags loads the current row, derives the next tag set, and writes it
// back. merge is nil for a plain replace (SetTags), or model.UnionTags to
// merge onto the existing set (AppendTags).
func (s *Store) updateTags(ctx context.Context, userID uuid.UUID, bookmarkID string, tags []string, merge func(existing, new []string) []string) (model.Bookmark, error) {
	next := tags
	if merge != nil {
		const selectExistingTags = `SELECT tags FROM bookmark WHERE user_id = $1 AND bookmark_id = $2`
		var existing []string
		if err := s.pool.QueryRow(ctx, selectExistingTags, userID, bookmarkID).Scan(&existing); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.Bookmark{}, fmt.Errorf("bookmark %s: %w", bookmarkID, apperr.NotFound)
			}
			return model.Bookmark{}, fmt.Errorf("reading existing tags: %w", errors.Join(apperr.Internal, err))
		}
		next = merge(existing, tags)
	}

	const sql = `UPDATE bookmark SET tags = $1, updated_at = now() WHERE bookmark_id = $2 AND user_id = $3 RETURNING ` + bookmarkColumns
	row := s.pool.QueryRow(ctx, sql, next, bookmarkID, userID)
	b, err := scanBookmark(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bookmark{}, fmt.Errorf("bookmark %s: %w", bookmarkID, apperr.NotFound)
	}
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("updating tags: %w", errors.Join(apperr.Internal, err))
	}
	return b, nil
}

func (s *Store) TagCounts(ctx context.Context, userID uuid.UUID) ([]model.TagCount, error) {
	const sql = `
	WITH tags AS (
		SELECT unnest(tags) AS tag FROM bookmark WHERE user_id = $1
	)
	SELECT tag, count(1) AS counter FROM tags GROUP BY tag ORDER BY counter DESC, tag ASC`

	rows, err := s.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("counting tags: %w", errors.Join(apperr.Internal, err))
	}
	defer rows.Close()

	var out []model.TagCount
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning tag count: %w", errors.Join(apperr.Internal, err))
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) BookmarksByTag(ctx context.Context, userID uuid.UUID, tag string) ([]model.Bookmark, error) {
	const sql = `SELECT ` + bookmarkColumns + ` FROM bookmark WHERE user_id = $1 AND tags @> $2 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, sql, userID, []string{tag})
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks by tag: %w", errors.Join(apperr.Internal, err))
	}
	defer rows.Close()

	var out []model.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", errors.Join(apperr.Internal, err))
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

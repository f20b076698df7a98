package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

// LexicalSearch runs a weighted full-text match against a bookmark's
// title/body/tags (search_tokens, weighted A/B/C by the insert trigger),
// grounded on original_source's SearchService query builder. tsquery is the
// caller-built tsquery expression (e.g. "rust & web" or "foo <-> bar" for a
// phrase); an empty tsquery lists all of the user's bookmarks by recency
// instead of matching nothing.
func (s *Store) LexicalSearch(ctx context.Context, userID uuid.UUID, tsquery string, k int) ([]model.SearchHit, error) {
	var sql string
	args := []any{userID}

	if tsquery == "" {
		sql = `
		SELECT ` + bookmarkColumns + `, 0::float8, ''::text
		FROM bookmark
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
		args = append(args, k)
	} else {
		sql = `
		SELECT ` + bookmarkColumns + `,
			ts_rank(search_tokens, query) AS rank,
			ts_headline('english', text_content, query, 'StartSel=<b>, StopSel=</b>') AS search_match
		FROM bookmark, to_tsquery('english', $2) query
		WHERE user_id = $1 AND search_tokens @@ query
		ORDER BY rank DESC
		LIMIT $3`
		args = append(args, tsquery, k)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", errors.Join(apperr.Internal, err))
	}
	defer rows.Close()

	var out []model.SearchHit
	for rows.Next() {
		var hit model.SearchHit
		err := rows.Scan(
			&hit.Bookmark.BookmarkID, &hit.Bookmark.UserID, &hit.Bookmark.URL, &hit.Bookmark.Domain,
			&hit.Bookmark.Title, &hit.Bookmark.TextContent, &hit.Bookmark.Tags, &hit.Bookmark.Summary,
			&hit.Bookmark.CreatedAt, &hit.Bookmark.UpdatedAt,
			&hit.Rank, &hit.SearchMatch,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", errors.Join(apperr.Internal, err))
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

// ReplaceChunks deletes a bookmark's existing chunks and inserts the given
// ones in a single transaction, grounded on original_source's
// store_chunks_with_embeddings (which does the same delete-then-insert, but
// without a wrapping transaction; bookmark hub's pipeline requires the
// replace to be atomic so a crash mid-insert never leaves a bookmark with a
// partial chunk set).
func (s *Store) ReplaceChunks(ctx context.Context, userID uuid.UUID, bookmarkID string, chunks []model.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning chunk replace tx: %w", errors.Join(apperr.Internal, err))
	}
	defer tx.Rollback(ctx)

	const deleteSQL = `DELETE FROM bookmark_chunk WHERE user_id = $1 AND bookmark_id = $2`
	if _, err := tx.Exec(ctx, deleteSQL, userID, bookmarkID); err != nil {
		return fmt.Errorf("deleting existing chunks: %w", errors.Join(apperr.Internal, err))
	}

	const insertSQL = `
	INSERT INTO bookmark_chunk (bookmark_id, user_id, chunk_index, chunk_text, embedding)
	VALUES ($1, $2, $3, $4, $5)`

	for _, c := range chunks {
		_, err := tx.Exec(ctx, insertSQL, bookmarkID, userID, c.ChunkIndex, c.ChunkText, pgvector.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.ChunkIndex, errors.Join(apperr.Internal, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk replace: %w", errors.Join(apperr.Internal, err))
	}
	return nil
}

// NearestChunks finds the k chunks closest to queryVector by cosine
// distance, joined back to their owning bookmark, grounded on
// original_source's search_similar_chunks. Unlike the original it does not
// apply a similarity_threshold filter server-side: the RAG composer applies
// its own threshold after scoring, and the search engine's Semantic applies
// none, so the same query serves both.
func (s *Store) NearestChunks(ctx context.Context, userID uuid.UUID, queryVector []float32, k int) ([]model.SemanticHit, error) {
	const sql = `
	SELECT
		c.chunk_id, c.chunk_text, 1 - (c.embedding <=> $2) AS similarity,
		b.bookmark_id, b.user_id, b.url, b.domain, b.title, b.text_content, b.tags, b.summary, b.created_at, b.updated_at
	FROM bookmark_chunk c
	JOIN bookmark b ON b.user_id = c.user_id AND b.bookmark_id = c.bookmark_id
	WHERE c.user_id = $1
	ORDER BY c.embedding <=> $2
	LIMIT $3`

	rows, err := s.pool.Query(ctx, sql, userID, pgvector.NewVector(queryVector), k)
	if err != nil {
		return nil, fmt.Errorf("searching nearest chunks: %w", errors.Join(apperr.Internal, err))
	}
	defer rows.Close()

	var out []model.SemanticHit
	for rows.Next() {
		var hit model.SemanticHit
		err := rows.Scan(
			&hit.ChunkID, &hit.ChunkText, &hit.Similarity,
			&hit.Bookmark.BookmarkID, &hit.Bookmark.UserID, &hit.Bookmark.URL, &hit.Bookmark.Domain,
			&hit.Bookmark.Title, &hit.Bookmark.TextContent, &hit.Bookmark.Tags, &hit.Bookmark.Summary,
			&hit.Bookmark.CreatedAt, &hit.Bookmark.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning semantic hit: %w", errors.Join(apperr.Internal, err))
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

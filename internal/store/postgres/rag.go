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

const ragColumns = `session_id, user_id, question, answer, relevant_chunks, created_at, updated_at`

func scanRagSession(row pgx.Row) (model.RagSession, error) {
	var r model.RagSession
	err := row.Scan(&r.SessionID, &r.UserID, &r.Question, &r.Answer, &r.RelevantChunks, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) CreateRagSession(ctx context.Context, userID uuid.UUID, question string) (model.RagSession, error) {
	const sql = `
	INSERT INTO rag_session (user_id, question)
	VALUES ($1, $2)
	RETURNING ` + ragColumns

	row := s.pool.QueryRow(ctx, sql, userID, question)
	r, err := scanRagSession(row)
	if err != nil {
		return model.RagSession{}, fmt.Errorf("creating rag session: %w", errors.Join(apperr.Internal, err))
	}
	return r, nil
}

func (s *Store) UpdateRagSession(ctx context.Context, userID, sessionID uuid.UUID, answer string, relevantChunks []uuid.UUID) (model.RagSession, error) {
	const sql = `
	UPDATE rag_session SET answer = $3, relevant_chunks = $4, updated_at = now()
	WHERE session_id = $1 AND user_id = $2
	RETURNING ` + ragColumns

	row := s.pool.QueryRow(ctx, sql, sessionID, userID, answer, relevantChunks)
	r, err := scanRagSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RagSession{}, fmt.Errorf("rag session %s: %w", sessionID, apperr.NotFound)
	}
	if err != nil {
		return model.RagSession{}, fmt.Errorf("updating rag session: %w", errors.Join(apperr.Internal, err))
	}
	return r, nil
}

func (s *Store) ListRagSessions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RagSession, error) {
	page = page.Normalize()

	sql := `SELECT ` + ragColumns + ` FROM rag_session WHERE user_id = $1`
	args := []any{userID}

	if page.After != nil {
		sql += fmt.Sprintf(` AND (created_at, session_id) < ($%d, $%d)`, len(args)+1, len(args)+2)
		afterID, err := uuid.Parse(page.AfterID)
		if err != nil {
			return nil, fmt.Errorf("invalid page cursor: %w", errors.Join(apperr.Validation, err))
		}
		args = append(args, *page.After, afterID)
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC, session_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, page.PageSize)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rag sessions: %w", errors.Join(apperr.Internal, err))
	}
	defer rows.Close()

	var out []model.RagSession
	for rows.Next() {
		r, err := scanRagSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rag session: %w", errors.Join(apperr.Internal, err))
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

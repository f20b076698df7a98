// Package postgres implements the Storage Gateway (store.Gateway) against
// PostgreSQL and pgvector, using pgx/v5 directly with hand-written SQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookmarkhub/bookmarkhub/internal/store"
)

// Store implements store.Gateway over a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Gateway = (*Store)(nil)

// New opens a connection pool against connStr (a libpq-style DSN or a
// postgres:// URI), pings it, and ensures the schema exists.
func New(ctx context.Context, connStr string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

// Close releases the pool. Safe to call once.
func (s *Store) Close() {
	s.pool.Close()
}

// schema is applied idempotently on startup. It is intentionally plain SQL
// rather than a migration framework: the teacher's ent schema is
// code-generated and not hand-authorable here, so bookmark hub manages its
// own schema with CREATE ... IF NOT EXISTS statements instead.
const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS pgcrypto;

DO $$ BEGIN
	CREATE TYPE task_status AS ENUM ('pending', 'done', 'fail');
EXCEPTION WHEN duplicate_object THEN null;
END $$;

CREATE TABLE IF NOT EXISTS app_user (
	user_id    uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookmark (
	bookmark_id  text NOT NULL,
	user_id      uuid NOT NULL,
	url          text NOT NULL,
	domain       text NOT NULL,
	title        text NOT NULL DEFAULT '',
	text_content text NOT NULL DEFAULT '',
	tags         text[] NOT NULL DEFAULT '{}',
	summary      text,
	search_tokens tsvector,
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, bookmark_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS bookmark_user_url_idx ON bookmark (user_id, url);
CREATE INDEX IF NOT EXISTS bookmark_user_created_idx ON bookmark (user_id, created_at DESC, bookmark_id);
CREATE INDEX IF NOT EXISTS bookmark_search_tokens_idx ON bookmark USING GIN (search_tokens);
CREATE INDEX IF NOT EXISTS bookmark_tags_idx ON bookmark USING GIN (tags);

CREATE OR REPLACE FUNCTION bookmark_search_tokens_trigger() RETURNS trigger AS $$
BEGIN
	NEW.search_tokens :=
		setweight(to_tsvector('english', coalesce(NEW.title, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(NEW.text_content, '')), 'B') ||
		setweight(to_tsvector('english', array_to_string(NEW.tags, ' ')), 'C');
	RETURN NEW;
END
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS bookmark_search_tokens_update ON bookmark;
CREATE TRIGGER bookmark_search_tokens_update
	BEFORE INSERT OR UPDATE ON bookmark
	FOR EACH ROW EXECUTE FUNCTION bookmark_search_tokens_trigger();

CREATE TABLE IF NOT EXISTS bookmark_chunk (
	chunk_id    uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	bookmark_id text NOT NULL,
	user_id     uuid NOT NULL,
	chunk_index int NOT NULL,
	chunk_text  text NOT NULL,
	embedding   vector(768) NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now(),
	FOREIGN KEY (user_id, bookmark_id) REFERENCES bookmark (user_id, bookmark_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS bookmark_chunk_bookmark_idx ON bookmark_chunk (user_id, bookmark_id);
CREATE INDEX IF NOT EXISTS bookmark_chunk_embedding_idx ON bookmark_chunk
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);

CREATE TABLE IF NOT EXISTS bookmark_task (
	task_id       uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id       uuid NOT NULL,
	url           text NOT NULL,
	status        task_status NOT NULL DEFAULT 'pending',
	tags          text[] NOT NULL DEFAULT '{}',
	summary       text,
	next_delivery timestamptz NOT NULL DEFAULT now(),
	retries       int NOT NULL DEFAULT 0,
	fail_reason   text,
	created_at    timestamptz NOT NULL DEFAULT now(),
	updated_at    timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS bookmark_task_lease_idx ON bookmark_task (status, next_delivery) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS bookmark_task_user_idx ON bookmark_task (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS rag_session (
	session_id      uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id         uuid NOT NULL,
	question        text NOT NULL,
	answer          text,
	relevant_chunks uuid[] NOT NULL DEFAULT '{}',
	created_at      timestamptz NOT NULL DEFAULT now(),
	updated_at      timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS rag_session_user_idx ON rag_session (user_id, created_at DESC);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

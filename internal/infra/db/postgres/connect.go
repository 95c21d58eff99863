package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_conversations (
  id              TEXT PRIMARY KEY,
  user_id         TEXT NOT NULL,
  assistance_type TEXT NOT NULL DEFAULT 'general',
  created_at      TIMESTAMPTZ NOT NULL,
  updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_conversations_user_idx ON chat_conversations (user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS chat_messages (
  id              TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL REFERENCES chat_conversations (id) ON DELETE CASCADE,
  role            TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
  content         TEXT NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_conversation_idx ON chat_messages (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS user_interests (
  user_id          TEXT NOT NULL,
  topic_key        TEXT NOT NULL,
  topic            TEXT NOT NULL,
  search_count     INTEGER NOT NULL DEFAULT 1,
  last_searched_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (user_id, topic_key)
);

CREATE TABLE IF NOT EXISTS mind_maps (
  id            TEXT PRIMARY KEY,
  user_id       TEXT NOT NULL,
  topic         TEXT NOT NULL,
  interest_area TEXT NOT NULL,
  skill_level   TEXT NOT NULL,
  mind_map_data JSONB NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS mind_maps_user_idx ON mind_maps (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS topic_analyses (
  id          TEXT PRIMARY KEY,
  user_id     TEXT NOT NULL,
  topic       TEXT NOT NULL,
  result_json JSONB NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS topic_analyses_user_idx ON topic_analyses (user_id, created_at DESC);
`

package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables when they do not exist yet. MySQL runs one
// statement per Exec unless multiStatements is set, so they go one by one.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_conversations (
  id              VARCHAR(64) PRIMARY KEY,
  user_id         VARCHAR(128) NOT NULL,
  assistance_type VARCHAR(32) NOT NULL DEFAULT 'general',
  created_at      DATETIME(3) NOT NULL,
  updated_at      DATETIME(3) NOT NULL,
  INDEX chat_conversations_user_idx (user_id, updated_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS chat_messages (
  id              VARCHAR(64) PRIMARY KEY,
  conversation_id VARCHAR(64) NOT NULL,
  role            VARCHAR(16) NOT NULL,
  content         MEDIUMTEXT NOT NULL,
  created_at      DATETIME(3) NOT NULL,
  INDEX chat_messages_conversation_idx (conversation_id, created_at),
  CONSTRAINT chat_messages_conversation_fk FOREIGN KEY (conversation_id)
    REFERENCES chat_conversations (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS user_interests (
  user_id          VARCHAR(128) NOT NULL,
  topic_key        VARCHAR(255) NOT NULL,
  topic            VARCHAR(255) NOT NULL,
  search_count     INT NOT NULL DEFAULT 1,
  last_searched_at DATETIME(3) NOT NULL,
  PRIMARY KEY (user_id, topic_key)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS mind_maps (
  id            VARCHAR(64) PRIMARY KEY,
  user_id       VARCHAR(128) NOT NULL,
  topic         VARCHAR(255) NOT NULL,
  interest_area VARCHAR(255) NOT NULL,
  skill_level   VARCHAR(32) NOT NULL,
  mind_map_data JSON NOT NULL,
  created_at    DATETIME(3) NOT NULL,
  INDEX mind_maps_user_idx (user_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS topic_analyses (
  id          VARCHAR(64) PRIMARY KEY,
  user_id     VARCHAR(128) NOT NULL,
  topic       VARCHAR(255) NOT NULL,
  result_json JSON NOT NULL,
  created_at  DATETIME(3) NOT NULL,
  INDEX topic_analyses_user_idx (user_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

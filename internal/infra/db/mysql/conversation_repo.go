package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	const q = `
INSERT INTO chat_conversations (id, user_id, assistance_type, created_at, updated_at)
VALUES (?,?,?,?,?);`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.AssistanceType, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *ConversationRepository) GetConversation(ctx context.Context, id chat.ConversationID) (*chat.Conversation, error) {
	const q = `
SELECT id, user_id, assistance_type, created_at, updated_at
FROM chat_conversations WHERE id=?;`
	var c chat.Conversation
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.UserID, &c.AssistanceType, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ConversationRepository) ListConversations(ctx context.Context, userID string) ([]*chat.Conversation, error) {
	const q = `
SELECT id, user_id, assistance_type, created_at, updated_at
FROM chat_conversations
WHERE user_id=?
ORDER BY updated_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*chat.Conversation{}
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.AssistanceType, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ConversationRepository) SetAssistanceType(ctx context.Context, id chat.ConversationID, t chat.AssistanceType) error {
	// MySQL reports zero affected rows when the value is unchanged, so existence is checked first.
	if _, err := r.GetConversation(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE chat_conversations SET assistance_type=?, updated_at=UTC_TIMESTAMP(3) WHERE id=?;`, t, id)
	return err
}

// AppendPair writes both turns and bumps the conversation in one transaction.
func (r *ConversationRepository) AppendPair(ctx context.Context, user, assistant *chat.Turn) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE chat_conversations SET updated_at=? WHERE id=?;`, assistant.CreatedAt, user.ConversationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err = tx.QueryRowContext(ctx, `SELECT 1 FROM chat_conversations WHERE id=?;`, user.ConversationID).Scan(&exists); err != nil {
			return notFound(err)
		}
	}

	const insert = `
INSERT INTO chat_messages (id, conversation_id, role, content, created_at)
VALUES (?,?,?,?,?),(?,?,?,?,?);`
	if _, err = tx.ExecContext(ctx, insert,
		user.ID, user.ConversationID, user.Role, user.Content, user.CreatedAt,
		assistant.ID, assistant.ConversationID, assistant.Role, assistant.Content, assistant.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert turns: %w", err)
	}
	return tx.Commit()
}

// History returns the newest limit turns, oldest first.
func (r *ConversationRepository) History(ctx context.Context, id chat.ConversationID, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		return r.Turns(ctx, id)
	}
	const q = `
SELECT id, conversation_id, role, content, created_at FROM (
  SELECT id, conversation_id, role, content, created_at,
         CASE role WHEN 'user' THEN 0 ELSE 1 END AS role_rank
  FROM chat_messages
  WHERE conversation_id=?
  ORDER BY created_at DESC, role_rank DESC
  LIMIT ?
) recent
ORDER BY created_at ASC, role_rank ASC;`
	return r.query(ctx, q, id, limit)
}

func (r *ConversationRepository) Turns(ctx context.Context, id chat.ConversationID) ([]chat.Turn, error) {
	const q = `
SELECT id, conversation_id, role, content, created_at
FROM chat_messages
WHERE conversation_id=?
ORDER BY created_at ASC, CASE role WHEN 'user' THEN 0 ELSE 1 END ASC;`
	return r.query(ctx, q, id)
}

func (r *ConversationRepository) query(ctx context.Context, q string, args ...any) ([]chat.Turn, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []chat.Turn{}
	for rows.Next() {
		var t chat.Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ chat.Repository = (*ConversationRepository)(nil)
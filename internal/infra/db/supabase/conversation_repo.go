package supabase

import (
	"context"
	"sort"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

type conversationRow struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	AssistanceType string    `json:"assistance_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r conversationRow) toDomain() *chat.Conversation {
	return &chat.Conversation{
		ID:             chat.ConversationID(r.ID),
		UserID:         r.UserID,
		AssistanceType: chat.AssistanceType(r.AssistanceType),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type messageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func messageFrom(t *chat.Turn) messageRow {
	return messageRow{ID: t.ID, ConversationID: string(t.ConversationID), Role: string(t.Role), Content: t.Content, CreatedAt: t.CreatedAt}
}

func (r messageRow) toDomain() chat.Turn {
	return chat.Turn{ID: r.ID, ConversationID: chat.ConversationID(r.ConversationID), Role: ai.Role(r.Role), Content: r.Content, CreatedAt: r.CreatedAt}
}

type ConversationRepository struct {
	db Tables
}

func (r *ConversationRepository) CreateConversation(_ context.Context, c *chat.Conversation) error {
	row := conversationRow{
		ID:             string(c.ID),
		UserID:         c.UserID,
		AssistanceType: string(c.AssistanceType),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	_, _, err := r.db.From(tableConversations).Insert(row, false, "", "minimal", "").Execute()
	return err
}

func (r *ConversationRepository) GetConversation(_ context.Context, id chat.ConversationID) (*chat.Conversation, error) {
	var rows []conversationRow
	_, err := r.db.From(tableConversations).Select("*", "", false).Eq("id", string(id)).Limit(1, "").ExecuteTo(&rows)
	row, err := single(rows, err)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *ConversationRepository) ListConversations(_ context.Context, userID string) ([]*chat.Conversation, error) {
	var rows []conversationRow
	if _, err := r.db.From(tableConversations).Select("*", "", false).Eq("user_id", userID).Order("updated_at", desc()).ExecuteTo(&rows); err != nil {
		return nil, err
	}
	out := make([]*chat.Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ConversationRepository) SetAssistanceType(_ context.Context, id chat.ConversationID, t chat.AssistanceType) error {
	patch := map[string]any{"assistance_type": string(t), "updated_at": timestamp(time.Now())}
	var rows []conversationRow
	_, err := r.db.From(tableConversations).Update(patch, "representation", "").Eq("id", string(id)).ExecuteTo(&rows)
	if _, err := single(rows, err); err != nil {
		return err
	}
	return nil
}

// AppendPair sends both turns in one bulk insert. PostgREST runs a request in
// a single transaction, so either both rows land or neither does.
func (r *ConversationRepository) AppendPair(ctx context.Context, user, assistant *chat.Turn) error {
	if _, err := r.GetConversation(ctx, user.ConversationID); err != nil {
		return err
	}
	rows := []messageRow{messageFrom(user), messageFrom(assistant)}
	if _, _, err := r.db.From(tableMessages).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
		return err
	}
	patch := map[string]any{"updated_at": timestamp(assistant.CreatedAt)}
	// the pair is durable at this point; a stale updated_at only affects list order
	_, _, _ = r.db.From(tableConversations).Update(patch, "minimal", "").Eq("id", string(user.ConversationID)).Execute()
	return nil
}

func (r *ConversationRepository) History(_ context.Context, id chat.ConversationID, limit int) ([]chat.Turn, error) {
	var rows []messageRow
	q := r.db.From(tableMessages).Select("*", "", false).Eq("conversation_id", string(id)).Order("created_at", desc())
	if limit > 0 {
		q = q.Limit(limit, "")
	}
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, err
	}
	return chronological(rows), nil
}

func (r *ConversationRepository) Turns(_ context.Context, id chat.ConversationID) ([]chat.Turn, error) {
	var rows []messageRow
	if _, err := r.db.From(tableMessages).Select("*", "", false).Eq("conversation_id", string(id)).Order("created_at", asc()).ExecuteTo(&rows); err != nil {
		return nil, err
	}
	return chronological(rows), nil
}

// chronological sorts by time with the user turn first on ties.
func chronological(rows []messageRow) []chat.Turn {
	out := make([]chat.Turn, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Role == ai.RoleUser && out[j].Role != ai.RoleUser
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

var _ chat.Repository = (*ConversationRepository)(nil)
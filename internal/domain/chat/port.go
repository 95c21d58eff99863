package chat

import "context"

// Repository persists conversations and their turns.
type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, id ConversationID) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*Conversation, error)
	SetAssistanceType(ctx context.Context, id ConversationID, t AssistanceType) error

	// AppendPair records the user turn and the assistant turn together or not at all.
	AppendPair(ctx context.Context, user, assistant *Turn) error
	// History returns up to limit most recent turns in chronological order.
	History(ctx context.Context, id ConversationID, limit int) ([]Turn, error)
	// Turns returns every turn in chronological order, user before assistant on ties.
	Turns(ctx context.Context, id ConversationID) ([]Turn, error)
}

// Feed is the live change feed keyed by conversation.
type Feed interface {
	Publish(ctx context.Context, t Turn) error
	// Subscribe delivers turns appended after the call until ctx is done or cancel is called.
	Subscribe(ctx context.Context, id ConversationID) (<-chan Turn, func(), error)
}

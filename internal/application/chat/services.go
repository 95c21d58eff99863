package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/skillscope/internal/application"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/domain/interests"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/prompt"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

const (
	MaxMessageLength = 4000
	// UnsavedWarning is returned when the model answered but the turns could not be stored.
	UnsavedWarning = "Response was not saved"
)

var errAssistanceType = &domain.InputError{Message: "assistanceType must be one of general, academic, opportunities, projects"}

// PairObserver is told whether a completed turn pair was stored.
type PairObserver interface {
	ChatPairPersisted(ok bool)
}

// Service relays chat turns. A turn pair is stored only after the model
// answered, and both turns are stored in one write.
type Service struct {
	AI            ai.Client
	Conversations chat.Repository
	Interests     interests.Repository
	Feed          chat.Feed
	Clock         application.Clock
	Log           *logger.Logger
	Observer      PairObserver
}

func (s *Service) Start(ctx context.Context, assistance string) (*chat.Conversation, error) {
	t, ok := chat.ParseAssistanceType(assistance)
	if !ok {
		return nil, errAssistanceType
	}
	c, err := s.newConversation(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := s.Conversations.CreateConversation(ctx, c); err != nil {
		s.Log.Error("create conversation failed", "user_id", c.UserID, "error", err)
		return nil, domain.StoreError("create conversation", err)
	}
	return c, nil
}

// newConversation builds a conversation for the caller without storing it.
func (s *Service) newConversation(ctx context.Context, t chat.AssistanceType) (*chat.Conversation, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	now := s.Clock.Now()
	return &chat.Conversation{
		ID:             chat.ConversationID(uuid.NewString()),
		UserID:         user,
		AssistanceType: t,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]*chat.Conversation, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	list, err := s.Conversations.ListConversations(ctx, user)
	if err != nil {
		return nil, domain.StoreError("list conversations", err)
	}
	return list, nil
}

// Get returns a conversation owned by the caller.
func (s *Service) Get(ctx context.Context, id chat.ConversationID) (*chat.Conversation, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	c, err := s.Conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get conversation", err)
	}
	if c.UserID != user {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

// SetAssistanceType changes the mode for future turns only.
func (s *Service) SetAssistanceType(ctx context.Context, id chat.ConversationID, assistance string) (*chat.Conversation, error) {
	t, ok := chat.ParseAssistanceType(assistance)
	if !ok || strings.TrimSpace(assistance) == "" {
		return nil, errAssistanceType
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AssistanceType == t {
		return c, nil
	}
	if err := s.Conversations.SetAssistanceType(ctx, id, t); err != nil {
		return nil, domain.StoreError("set assistance type", err)
	}
	c.AssistanceType = t
	c.UpdatedAt = s.Clock.Now()
	return c, nil
}

func (s *Service) Turns(ctx context.Context, id chat.ConversationID) ([]chat.Turn, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	turns, err := s.Conversations.Turns(ctx, id)
	if err != nil {
		return nil, domain.StoreError("list turns", err)
	}
	return turns, nil
}

// Subscribe streams turns appended to a conversation owned by the caller.
func (s *Service) Subscribe(ctx context.Context, id chat.ConversationID) (<-chan chat.Turn, func(), error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	if s.Feed == nil {
		return nil, nil, fmt.Errorf("live feed is not configured: %w", domain.ErrNotFound)
	}
	return s.Feed.Subscribe(ctx, id)
}

type SendCommand struct {
	ConversationID chat.ConversationID
	Message        string
	// AssistanceType, when set, becomes the conversation mode from this turn on.
	AssistanceType string
	// Interests overrides the stored ranking when non-empty.
	Interests []string
}

type SendResult struct {
	Response       string              `json:"response"`
	ConversationID chat.ConversationID `json:"conversationId"`
	Turns          []chat.Turn         `json:"turns,omitempty"`
	Warning        string              `json:"warning,omitempty"`
}

func (s *Service) Send(ctx context.Context, cmd SendCommand) (*SendResult, error) {
	msg := strings.TrimSpace(cmd.Message)
	if msg == "" {
		return nil, fmt.Errorf("message is required: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(msg) > MaxMessageLength {
		return nil, fmt.Errorf("message longer than %d characters: %w", MaxMessageLength, domain.ErrValidation)
	}
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}

	conv, writes, err := s.conversationFor(ctx, cmd)
	if err != nil {
		return nil, err
	}
	topics := s.interestsFor(ctx, user, cmd.Interests)
	var history []chat.Turn
	if !writes.created {
		history, err = s.Conversations.History(ctx, conv.ID, chat.HistoryWindow)
		if err != nil {
			s.Log.Error("load chat history failed", "conversation_id", conv.ID, "error", err)
			return nil, domain.StoreError("load history", err)
		}
	}

	userAt := s.Clock.Now()
	s.Log.Info("chat turn", "conversation_id", conv.ID, "assistance_type", conv.AssistanceType, "history", len(history), "interests", len(topics))
	resp, err := s.AI.Generate(ctx, prompt.ChatRequest(conv.AssistanceType, topics, history, msg))
	if err != nil {
		s.Log.Warn("chat generation failed", "conversation_id", conv.ID, "error", err)
		return nil, err
	}
	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return nil, fmt.Errorf("empty chat completion: %w", ai.ErrUpstreamShape)
	}

	assistantAt := s.Clock.Now()
	if !assistantAt.After(userAt) {
		assistantAt = userAt.Add(time.Millisecond)
	}
	userTurn := &chat.Turn{ID: uuid.NewString(), ConversationID: conv.ID, Role: ai.RoleUser, Content: msg, CreatedAt: userAt}
	botTurn := &chat.Turn{ID: uuid.NewString(), ConversationID: conv.ID, Role: ai.RoleAssistant, Content: answer, CreatedAt: assistantAt}

	out := &SendResult{Response: answer, ConversationID: conv.ID}
	if err := s.persist(ctx, conv, &writes, userTurn, botTurn); err != nil {
		// the answer was produced; surface it and report the lost write
		s.Log.Error("persist chat turns failed", "conversation_id", conv.ID, "error", err)
		s.observe(false)
		out.Warning = UnsavedWarning
		if writes.created {
			out.ConversationID = ""
		}
		return out, nil
	}
	s.observe(true)
	out.Turns = []chat.Turn{*userTurn, *botTurn}

	if s.Feed != nil {
		for _, t := range out.Turns {
			if err := s.Feed.Publish(ctx, t); err != nil {
				s.Log.Warn("publish chat turn failed", "conversation_id", conv.ID, "turn_id", t.ID, "error", err)
			}
		}
	}
	return out, nil
}

// pending records conversation writes held back until the model answered.
type pending struct {
	created     bool
	modeChanged bool
}

// conversationFor resolves the conversation of a turn. An unknown assistance
// type falls back to general. Nothing is written here.
func (s *Service) conversationFor(ctx context.Context, cmd SendCommand) (*chat.Conversation, pending, error) {
	var p pending
	t, ok := chat.ParseAssistanceType(cmd.AssistanceType)
	if !ok {
		s.Log.Warn("unknown assistance type, using general", "assistance_type", cmd.AssistanceType)
		t = chat.AssistGeneral
	}
	if strings.TrimSpace(string(cmd.ConversationID)) == "" {
		conv, err := s.newConversation(ctx, t)
		p.created = true
		return conv, p, err
	}
	conv, err := s.Get(ctx, cmd.ConversationID)
	if err != nil {
		return nil, p, err
	}
	if strings.TrimSpace(cmd.AssistanceType) != "" && conv.AssistanceType != t {
		conv.AssistanceType = t
		conv.UpdatedAt = s.Clock.Now()
		p.modeChanged = true
	}
	return conv, p, nil
}

// persist clears p.created once the conversation row exists.
func (s *Service) persist(ctx context.Context, conv *chat.Conversation, p *pending, user, assistant *chat.Turn) error {
	switch {
	case p.created:
		if err := s.Conversations.CreateConversation(ctx, conv); err != nil {
			return err
		}
		p.created = false
	case p.modeChanged:
		if err := s.Conversations.SetAssistanceType(ctx, conv.ID, conv.AssistanceType); err != nil {
			return err
		}
	}
	return s.Conversations.AppendPair(ctx, user, assistant)
}

// interestsFor prefers caller-supplied topics and falls back to the stored ranking.
// A failed lookup only loses personalization.
func (s *Service) interestsFor(ctx context.Context, user string, given []string) []string {
	var topics []string
	for _, t := range given {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 && s.Interests != nil {
		top, err := s.Interests.Top(ctx, user, interests.PersonalizationLimit)
		if err != nil {
			s.Log.Warn("load interests failed", "user_id", user, "error", err)
		}
		topics = interests.Topics(top)
	}
	if len(topics) > interests.PersonalizationLimit {
		topics = topics[:interests.PersonalizationLimit]
	}
	return topics
}

func (s *Service) observe(ok bool) {
	if s.Observer != nil {
		s.Observer.ChatPairPersisted(ok)
	}
}

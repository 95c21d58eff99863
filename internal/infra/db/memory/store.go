package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/interests"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// Store keeps every aggregate in process memory. It implements the chat,
// interests, mind map and analysis repositories.
type Store struct {
	mu            sync.RWMutex
	conversations map[chat.ConversationID]*chat.Conversation
	turns         map[chat.ConversationID][]chat.Turn
	interests     map[string]map[string]*interests.Interest
	mindMaps      map[mindmap.ID]*mindmap.Saved
	analyses      map[analysis.RecordID]*analysis.Record

	// FailAppend makes AppendPair fail; used to exercise lost-write paths.
	FailAppend error
}

func New() *Store {
	return &Store{
		conversations: make(map[chat.ConversationID]*chat.Conversation),
		turns:         make(map[chat.ConversationID][]chat.Turn),
		interests:     make(map[string]map[string]*interests.Interest),
		mindMaps:      make(map[mindmap.ID]*mindmap.Saved),
		analyses:      make(map[analysis.RecordID]*analysis.Record),
	}
}

func (s *Store) Check(context.Context) error { return nil }

// --- conversations ---

func (s *Store) CreateConversation(_ context.Context, c *chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.conversations[c.ID] = &cp
	return nil
}

func (s *Store) GetConversation(_ context.Context, id chat.ConversationID) (*chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]*chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*chat.Conversation{}
	for _, c := range s.conversations {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) SetAssistanceType(_ context.Context, id chat.ConversationID, t chat.AssistanceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.AssistanceType = t
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AppendPair(_ context.Context, user, assistant *chat.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppend != nil {
		return s.FailAppend
	}
	c, ok := s.conversations[user.ConversationID]
	if !ok {
		return domain.ErrNotFound
	}
	s.turns[user.ConversationID] = append(s.turns[user.ConversationID], *user, *assistant)
	c.UpdatedAt = assistant.CreatedAt
	return nil
}

func (s *Store) History(_ context.Context, id chat.ConversationID, limit int) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := sortedTurns(s.turns[id])
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *Store) Turns(_ context.Context, id chat.ConversationID) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedTurns(s.turns[id]), nil
}

func sortedTurns(in []chat.Turn) []chat.Turn {
	out := make([]chat.Turn, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Role == ai.RoleUser && out[j].Role != ai.RoleUser
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// --- interests ---

func (s *Store) Record(_ context.Context, userID, topic string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser := s.interests[userID]
	if byUser == nil {
		byUser = make(map[string]*interests.Interest)
		s.interests[userID] = byUser
	}
	key := interests.Key(topic)
	if i, ok := byUser[key]; ok {
		i.SearchCount++
		i.LastSearchedAt = at
		return nil
	}
	byUser[key] = &interests.Interest{UserID: userID, Topic: topic, SearchCount: 1, LastSearchedAt: at}
	return nil
}

func (s *Store) Top(_ context.Context, userID string, limit int) ([]interests.Interest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []interests.Interest{}
	for _, i := range s.interests[userID] {
		out = append(out, *i)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].SearchCount != out[b].SearchCount {
			return out[a].SearchCount > out[b].SearchCount
		}
		return out[a].LastSearchedAt.After(out[b].LastSearchedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Package supabase stores conversations, interests, mind maps and analyses in
// a hosted Supabase project through its PostgREST API.
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/bryanwahyu/skillscope/internal/domain"
)

const (
	tableConversations = "chat_conversations"
	tableMessages      = "chat_messages"
	tableInterests     = "user_interests"
	tableMindMaps      = "mind_maps"
	tableAnalyses      = "topic_analyses"
)

// Tables is the subset of the Supabase client the repositories use.
type Tables interface {
	From(table string) *postgrest.QueryBuilder
}

// Store groups the repositories that share one Supabase client.
type Store struct {
	db Tables
}

// NewClient builds a service-role client. The key bypasses row level security,
// so ownership is enforced by the application services.
func NewClient(url, serviceKey string) (*supabase.Client, error) {
	c, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return c, nil
}

func New(db Tables) *Store { return &Store{db: db} }

func (s *Store) Conversations() *ConversationRepository { return &ConversationRepository{db: s.db} }
func (s *Store) Interests() *InterestRepository         { return &InterestRepository{db: s.db} }
func (s *Store) MindMaps() *MindMapRepository           { return &MindMapRepository{db: s.db} }
func (s *Store) Analyses() *AnalysisRepository          { return &AnalysisRepository{db: s.db} }

// Check issues a cheap head request against the conversations table.
func (s *Store) Check(ctx context.Context) error {
	_, _, err := s.db.From(tableConversations).Select("id", "", true).Limit(1, "").Execute()
	return err
}

// single unwraps a list query that is expected to return one row.
func single[T any](rows []T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

func desc() *postgrest.OrderOpts { return &postgrest.OrderOpts{Ascending: false} }
func asc() *postgrest.OrderOpts  { return &postgrest.OrderOpts{Ascending: true} }

// timestamp formats times the way PostgREST compares timestamptz values.
func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

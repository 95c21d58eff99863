package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/skillscope/internal/application"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	domanalysis "github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/domain/interests"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/prompt"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

const MaxTopicLength = 200

// Service runs topic analysis. Interests and History are optional; when a
// session is present they record the lookup, and their failures never fail
// the analysis.
type Service struct {
	AI        ai.Client
	Interests interests.Repository
	History   domanalysis.Repository
	Clock     application.Clock
	Log       *logger.Logger
}

// ValidateTopic trims the topic and rejects empty or oversized input.
func ValidateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is required: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return "", fmt.Errorf("topic longer than %d characters: %w", MaxTopicLength, domain.ErrValidation)
	}
	return topic, nil
}

func (s *Service) Analyze(ctx context.Context, topic string) (*domanalysis.Result, error) {
	topic, err := ValidateTopic(topic)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	s.Log.Info("analyzing topic", "topic", topic)

	resp, err := s.AI.Generate(ctx, prompt.TopicRequest(topic, now.Year()))
	if err != nil {
		s.Log.Warn("topic analysis failed", "topic", topic, "error", err)
		return nil, err
	}
	result, err := domanalysis.Parse(resp.ToolArguments)
	if err != nil {
		s.Log.Error("unusable analysis from model", "topic", topic, "error", err)
		return nil, err
	}

	if user := identity.UserID(ctx); user != "" {
		s.remember(ctx, user, topic, result)
	}
	return result, nil
}

func (s *Service) remember(ctx context.Context, user, topic string, result *domanalysis.Result) {
	now := s.Clock.Now()
	if s.Interests != nil {
		if err := s.Interests.Record(ctx, user, topic, now); err != nil {
			s.Log.Error("record interest failed", "user_id", user, "topic", topic, "error", err)
		}
	}
	if s.History != nil {
		rec := &domanalysis.Record{
			ID:        domanalysis.RecordID(uuid.NewString()),
			UserID:    user,
			Topic:     topic,
			Result:    *result,
			CreatedAt: now,
		}
		if err := s.History.Save(ctx, rec); err != nil {
			s.Log.Error("save analysis failed", "user_id", user, "topic", topic, "error", err)
		}
	}
}

// ListHistory pages the caller's analyses, newest first.
func (s *Service) ListHistory(ctx context.Context, page, pageSize int) ([]*domanalysis.Record, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	if s.History == nil {
		return []*domanalysis.Record{}, nil
	}
	list, err := s.History.Paginate(ctx, user, page, pageSize)
	if err != nil {
		return nil, domain.StoreError("list analyses", err)
	}
	return list, nil
}

func (s *Service) GetHistory(ctx context.Context, id domanalysis.RecordID) (*domanalysis.Record, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	if s.History == nil {
		return nil, domain.ErrNotFound
	}
	rec, err := s.History.Get(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get analysis", err)
	}
	if rec.UserID != user {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// TopInterests returns the caller's most searched topics.
func (s *Service) TopInterests(ctx context.Context, limit int) ([]interests.Interest, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = interests.PersonalizationLimit
	}
	if limit > interests.MaxListLimit {
		limit = interests.MaxListLimit
	}
	if s.Interests == nil {
		return []interests.Interest{}, nil
	}
	list, err := s.Interests.Top(ctx, user, limit)
	if err != nil {
		return nil, domain.StoreError("top interests", err)
	}
	return list, nil
}


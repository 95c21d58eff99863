package supabase

import (
	"context"
	"strings"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain/interests"
)

type interestRow struct {
	UserID         string    `json:"user_id"`
	TopicKey       string    `json:"topic_key"`
	Topic          string    `json:"topic"`
	SearchCount    int       `json:"search_count"`
	LastSearchedAt time.Time `json:"last_searched_at"`
}

type InterestRepository struct {
	db Tables
}

// Record reads the current count and upserts count+1. PostgREST has no atomic
// increment, so concurrent lookups of one topic by one user can lose a count.
func (r *InterestRepository) Record(_ context.Context, userID, topic string, at time.Time) error {
	key := interests.Key(topic)
	var rows []interestRow
	if _, err := r.db.From(tableInterests).Select("*", "", false).Eq("user_id", userID).Eq("topic_key", key).Limit(1, "").ExecuteTo(&rows); err != nil {
		return err
	}
	row := interestRow{UserID: userID, TopicKey: key, Topic: strings.TrimSpace(topic), SearchCount: 1, LastSearchedAt: at}
	if len(rows) > 0 {
		row.Topic = rows[0].Topic
		row.SearchCount = rows[0].SearchCount + 1
	}
	_, _, err := r.db.From(tableInterests).Upsert(row, "user_id,topic_key", "minimal", "").Execute()
	return err
}

func (r *InterestRepository) Top(_ context.Context, userID string, limit int) ([]interests.Interest, error) {
	if limit <= 0 {
		limit = interests.PersonalizationLimit
	}
	var rows []interestRow
	_, err := r.db.From(tableInterests).Select("*", "", false).
		Eq("user_id", userID).
		Order("search_count", desc()).
		Order("last_searched_at", desc()).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	out := make([]interests.Interest, 0, len(rows))
	for _, row := range rows {
		out = append(out, interests.Interest{UserID: row.UserID, Topic: row.Topic, SearchCount: row.SearchCount, LastSearchedAt: row.LastSearchedAt})
	}
	return out, nil
}

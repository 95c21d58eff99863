package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain/interests"
)

type InterestRepository struct {
	db *sql.DB
}

func NewInterestRepository(db *sql.DB) *InterestRepository {
	return &InterestRepository{db: db}
}

// Record inserts the topic or increments its counter.
func (r *InterestRepository) Record(ctx context.Context, userID, topic string, at time.Time) error {
	const q = `
INSERT INTO user_interests (user_id, topic_key, topic, search_count, last_searched_at)
VALUES (?,?,?,1,?)
ON DUPLICATE KEY UPDATE
  search_count=search_count+1, last_searched_at=VALUES(last_searched_at);`
	_, err := r.db.ExecContext(ctx, q, userID, interests.Key(topic), strings.TrimSpace(topic), at)
	return err
}

func (r *InterestRepository) Top(ctx context.Context, userID string, limit int) ([]interests.Interest, error) {
	if limit <= 0 {
		limit = interests.PersonalizationLimit
	}
	const q = `
SELECT user_id, topic, search_count, last_searched_at
FROM user_interests
WHERE user_id=?
ORDER BY search_count DESC, last_searched_at DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []interests.Interest{}
	for rows.Next() {
		var i interests.Interest
		if err := rows.Scan(&i.UserID, &i.Topic, &i.SearchCount, &i.LastSearchedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

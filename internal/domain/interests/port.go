package interests

import (
	"context"
	"time"
)

type Repository interface {
	// Record increments the search count for (userID, topic), creating it at 1.
	Record(ctx context.Context, userID, topic string, at time.Time) error
	// Top returns up to limit interests ordered by search count, most searched first.
	Top(ctx context.Context, userID string, limit int) ([]Interest, error)
}

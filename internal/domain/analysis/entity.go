package analysis

import "time"

// RecordID identifier type
type RecordID string

// Record is a stored analysis owned by a user.
type Record struct {
	ID        RecordID  `json:"id"`
	UserID    string    `json:"userId"`
	Topic     string    `json:"topic"`
	Result    Result    `json:"analysis"`
	CreatedAt time.Time `json:"createdAt"`
}

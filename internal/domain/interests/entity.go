package interests

import (
	"strings"
	"time"
)

// Interest counts how often a user looked a topic up.
type Interest struct {
	UserID         string    `json:"userId"`
	Topic          string    `json:"topic"`
	SearchCount    int       `json:"searchCount"`
	LastSearchedAt time.Time `json:"lastSearchedAt"`
}

const (
	// PersonalizationLimit is how many ranked interests feed a chat prompt.
	PersonalizationLimit = 5
	MaxListLimit         = 20
)

// Key is the per-user identity of a topic.
func Key(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}

// Topics returns the topic names in order.
func Topics(list []Interest) []string {
	out := make([]string, 0, len(list))
	for _, i := range list {
		out = append(out, i.Topic)
	}
	return out
}

package chat

import (
	"strings"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

type AssistanceType string

const (
	AssistGeneral       AssistanceType = "general"
	AssistAcademic      AssistanceType = "academic"
	AssistOpportunities AssistanceType = "opportunities"
	AssistProjects      AssistanceType = "projects"
)

// ParseAssistanceType lower-cases the input. Empty means general.
func ParseAssistanceType(s string) (AssistanceType, bool) {
	switch t := AssistanceType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return AssistGeneral, true
	case AssistGeneral, AssistAcademic, AssistOpportunities, AssistProjects:
		return t, true
	default:
		return t, false
	}
}

type ConversationID string

// Conversation owns an ordered sequence of turns. AssistanceType only conditions future turns.
type Conversation struct {
	ID             ConversationID `json:"id"`
	UserID         string         `json:"userId"`
	AssistanceType AssistanceType `json:"assistanceType"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Turn is one durable chat message.
type Turn struct {
	ID             string         `json:"id"`
	ConversationID ConversationID `json:"conversationId"`
	Role           ai.Role        `json:"role"`
	Content        string         `json:"content"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// HistoryWindow is the maximum number of prior turns sent to the model.
const HistoryWindow = 20

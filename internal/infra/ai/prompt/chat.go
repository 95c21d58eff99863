package prompt

import (
	"strings"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

const chatFooter = "\n\nWhen helpful, suggest relevant images or diagrams to explain concepts. Keep responses concise and focused."

// ChatSystemPrompt is a pure function of the assistance type and the ranked interests.
func ChatSystemPrompt(t chat.AssistanceType, interests []string) string {
	topics := strings.Join(interests, ", ")
	if topics == "" {
		topics = "technology"
	}

	var b strings.Builder
	switch t {
	case chat.AssistAcademic:
		b.WriteString("You are a personalized academic assistant. Help the user with their studies, explain concepts clearly, and provide structured learning paths. Use visual aids and examples when helpful.")
	case chat.AssistOpportunities:
		b.WriteString("You are a career and opportunity advisor. Based on the user's interests in " + topics + ", suggest relevant hackathons, ideathons, internships, and job opportunities. Provide specific, actionable recommendations with links when possible.")
	case chat.AssistProjects:
		b.WriteString("You are a hands-on project mentor. Based on the user's interests in " + topics + ", suggest concrete projects to build, scoped to their level, with a clear first milestone, the tools involved, and how each project grows their portfolio.")
	default:
		b.WriteString("You are a helpful and friendly learning assistant. Provide clear, concise, and personalized responses based on the user's learning journey.")
	}
	if len(interests) > 0 {
		b.WriteString("\n\nUser's main interests: " + strings.Join(interests, ", ") + ".")
	}
	b.WriteString(chatFooter)
	return b.String()
}

// ChatRequest sends the prior turns in chronological order followed by the new message.
func ChatRequest(t chat.AssistanceType, interests []string, history []chat.Turn, message string) ai.Request {
	msgs := make([]ai.Message, 0, len(history)+1)
	for _, h := range history {
		msgs = append(msgs, ai.Message{Role: h.Role, Content: h.Content})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: message})
	return ai.Request{System: ChatSystemPrompt(t, interests), Messages: msgs}
}

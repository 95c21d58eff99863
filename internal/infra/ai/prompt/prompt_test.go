package prompt

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

func TestTopicRequestForcesTool(t *testing.T) {
	req := TopicRequest("COBOL", 2025)
	require.NotNil(t, req.Tool)
	assert.Equal(t, AnalysisToolName, req.Tool.Name)
	assert.Contains(t, req.System, "exactly 7 sections")
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, `"COBOL"`)
	assert.Contains(t, req.Messages[0].Content, "relevance in 2025")
}

func TestAnalysisSchemaRequiresAllSections(t *testing.T) {
	b, err := json.Marshal(AnalysisSchema())
	require.NoError(t, err)

	var doc struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Properties map[string]struct {
				Enum []string `json:"enum"`
			} `json:"properties"`
		} `json:"properties"`
		AdditionalProperties bool `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.ElementsMatch(t, []string{
		"relevance", "overview", "modernApplications", "importance",
		"skillsTools", "projectIdeas", "skillGap",
	}, doc.Required)
	assert.Equal(t, []string{"current", "declining", "outdated"}, doc.Properties["relevance"].Properties["status"].Enum)
	assert.False(t, doc.AdditionalProperties)
}

func TestMindMapRequestDefaults(t *testing.T) {
	req := MindMapRequest(mindmap.Params{Topic: "Kubernetes"})
	assert.True(t, req.JSONObject)
	assert.Contains(t, req.System, "Interest Area: general")
	assert.Contains(t, req.System, "Skill Level: beginner")
	assert.Equal(t, "Create a learning mind map for: Kubernetes", req.Messages[0].Content)

	req = MindMapRequest(mindmap.Params{Topic: "Kubernetes", InterestArea: "devops", SkillLevel: mindmap.SkillAdvanced})
	assert.Contains(t, req.System, "Interest Area: devops")
	assert.Contains(t, req.System, "Skill Level: advanced")
}

func TestChatSystemPrompt(t *testing.T) {
	tests := []struct {
		name      string
		typ       chat.AssistanceType
		interests []string
		contains  []string
		absent    []string
	}{
		{
			name:     "general without interests",
			typ:      chat.AssistGeneral,
			contains: []string{"friendly learning assistant", "Keep responses concise"},
			absent:   []string{"User's main interests"},
		},
		{
			name:      "academic with interests",
			typ:       chat.AssistAcademic,
			interests: []string{"Go", "Rust"},
			contains:  []string{"academic assistant", "User's main interests: Go, Rust."},
		},
		{
			name:      "opportunities names topics",
			typ:       chat.AssistOpportunities,
			interests: []string{"AI"},
			contains:  []string{"interests in AI", "hackathons"},
		},
		{
			name:     "projects has its own template",
			typ:      chat.AssistProjects,
			contains: []string{"project mentor"},
		},
		{
			name:     "unknown falls back to general",
			typ:      chat.AssistanceType("other"),
			contains: []string{"friendly learning assistant"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChatSystemPrompt(tt.typ, tt.interests)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, got, a)
			}
			assert.True(t, strings.HasSuffix(got, chatFooter))
			assert.Equal(t, got, ChatSystemPrompt(tt.typ, tt.interests))
		})
	}
}

func TestChatRequestOrdersHistory(t *testing.T) {
	now := time.Now()
	history := []chat.Turn{
		{Role: ai.RoleUser, Content: "q1", CreatedAt: now},
		{Role: ai.RoleAssistant, Content: "a1", CreatedAt: now.Add(time.Second)},
	}
	req := ChatRequest(chat.AssistGeneral, nil, history, "q2")
	require.Len(t, req.Messages, 3)
	assert.Equal(t, []ai.Message{
		{Role: ai.RoleUser, Content: "q1"},
		{Role: ai.RoleAssistant, Content: "a1"},
		{Role: ai.RoleUser, Content: "q2"},
	}, req.Messages)
	assert.Nil(t, req.Tool)
	assert.False(t, req.JSONObject)
}

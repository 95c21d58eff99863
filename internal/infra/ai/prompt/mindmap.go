package prompt

import (
	"fmt"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// MindMapSystemPrompt fixes the node counts per category and the JSON shape.
func MindMapSystemPrompt(p mindmap.Params) string {
	area := p.InterestArea
	if area == "" {
		area = mindmap.DefaultInterestArea
	}
	level := p.SkillLevel
	if level == "" {
		level = mindmap.SkillBeginner
	}
	return fmt.Sprintf(`You are an expert learning path designer. Create a comprehensive, structured learning mind map for the given topic.
The mind map should include:
1. Core Concepts (3-5 fundamental concepts)
2. Prerequisites (2-4 things to know before starting)
3. Skills to Learn (4-6 specific skills)
4. Learning Resources (3-5 recommended sources like books, courses, websites)
5. Project Ideas (3-5 hands-on projects)
6. Career Paths (2-4 potential career directions)

Adapt the complexity and focus based on:
- Interest Area: %s
- Skill Level: %s

Return the data as a JSON object with this structure:
{
  "nodes": [
    { "id": "root", "label": "Topic Name", "category": "root" },
    { "id": "core-1", "label": "Concept name", "category": "core", "description": "Brief description" },
    ...
  ],
  "edges": [
    { "from": "root", "to": "core-1" },
    ...
  ]
}

Every edge must reference node ids that exist in "nodes". Connect the root to every core concept and link each layer to the next.
Categories: root, core, prerequisite, skill, resource, project, career`, area, level)
}

func MindMapUserPrompt(topic string) string {
	return "Create a learning mind map for: " + topic
}

// MindMapRequest asks for a bare JSON object completion.
func MindMapRequest(p mindmap.Params) ai.Request {
	return ai.Request{
		System:     MindMapSystemPrompt(p),
		Messages:   []ai.Message{{Role: ai.RoleUser, Content: MindMapUserPrompt(p.Topic)}},
		JSONObject: true,
	}
}

package prompt

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

// AnalysisToolName is the forced structured call for topic analysis.
const AnalysisToolName = "provide_analysis"

// TopicSystemPrompt orders the model to classify relevance before anything else.
func TopicSystemPrompt() string {
	return `You are a technology skills analyzer with expertise in assessing topic relevance in modern technology. Your task is to analyze technology topics and provide structured, actionable insights.

CRITICAL: First assess if the topic is currently relevant or outdated in modern technology.

When analyzing a topic, provide exactly 7 sections:
1. Relevance Assessment - Determine if topic is current, declining, or outdated. If outdated, list replacement technologies.
2. Topic Overview - Brief introduction and context
3. Modern Applications - Where and how it's used today (or was used if outdated)
4. Importance & Impact - Why it matters (or historical significance if outdated)
5. Skills & Tools to Learn - Specific technologies, languages, and frameworks (or modern alternatives if outdated)
6. Project Ideas - Concrete projects from beginner to advanced
7. Skill Gap Analysis - What learners need to acquire to excel

Be specific, practical, and honest about relevance. Focus on actionable advice and real-world applications. Answer only through the provide_analysis tool.`
}

// TopicUserPrompt builds the per-request instruction. year anchors "relevant today".
func TopicUserPrompt(topic string, year int) string {
	return fmt.Sprintf(`Analyze the following technology topic: %q

FIRST: Assess relevance in %d - Is this topic current, declining, or outdated? If outdated, what modern technologies replaced it?

Provide a comprehensive analysis covering:
- Relevance Assessment (current status, adoption rate, practical usage, notable companies using it, if outdated list 3-5 replacement technologies with brief explanations)
- Topic Overview (3-4 points)
- Modern Applications (4-5 points, or historical uses if outdated)
- Importance & Impact (3-4 points)
- Skills & Tools to Learn (4-5 points with specific tools/languages, or modern alternatives)
- Project Ideas (4-5 concrete project suggestions)
- Skill Gap Analysis (4-5 points about what to learn)

Make it practical, specific, and actionable. Be honest about relevance.`, topic, year)
}

func bullets(desc string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Array,
		Items:       &jsonschema.Definition{Type: jsonschema.String},
		Description: desc,
	}
}

// AnalysisSchema is the JSON schema of the provide_analysis arguments.
func AnalysisSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"relevance": {
				Type:        jsonschema.Object,
				Description: "Relevance assessment in modern technology landscape",
				Properties: map[string]jsonschema.Definition{
					"status": {
						Type:        jsonschema.String,
						Enum:        []string{"current", "declining", "outdated"},
						Description: "Current relevance status of the topic",
					},
					"explanation": {
						Type:        jsonschema.String,
						Description: "Brief explanation of the relevance status",
					},
					"adoptionRate": {
						Type:        jsonschema.String,
						Description: "How widely the topic is adopted today",
					},
					"practicalUsage": {
						Type:        jsonschema.String,
						Description: "Where practitioners actually use it",
					},
					"companiesUsingIt": bullets("Notable companies using it"),
					"replacementTechnologies": {
						Type:        jsonschema.Array,
						Description: "Modern technologies that replaced this (if outdated/declining), each with brief explanation",
						Items: &jsonschema.Definition{
							Type: jsonschema.Object,
							Properties: map[string]jsonschema.Definition{
								"name":   {Type: jsonschema.String},
								"reason": {Type: jsonschema.String},
							},
							Required: []string{"name", "reason"},
						},
					},
				},
				Required: []string{"status", "explanation"},
			},
			"overview":           bullets("3-4 overview points about the topic"),
			"modernApplications": bullets("4-5 points about modern applications"),
			"importance":         bullets("3-4 points about importance and impact"),
			"skillsTools":        bullets("4-5 specific skills and tools to learn"),
			"projectIdeas":       bullets("4-5 concrete project ideas"),
			"skillGap":           bullets("4-5 points about skill gap analysis"),
		},
		Required: []string{
			"relevance", "overview", "modernApplications", "importance",
			"skillsTools", "projectIdeas", "skillGap",
		},
		AdditionalProperties: false,
	}
}

// AnalysisTool declares the provide_analysis structured call.
func AnalysisTool() *ai.Tool {
	return &ai.Tool{
		Name:        AnalysisToolName,
		Description: "Provide structured analysis of a technology topic",
		Parameters:  AnalysisSchema(),
	}
}

// TopicRequest assembles the full analysis request.
func TopicRequest(topic string, year int) ai.Request {
	return ai.Request{
		System:   TopicSystemPrompt(),
		Messages: []ai.Message{{Role: ai.RoleUser, Content: TopicUserPrompt(topic, year)}},
		Tool:     AnalysisTool(),
	}
}

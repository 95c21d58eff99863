package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

type Status string

const (
	StatusCurrent   Status = "current"
	StatusDeclining Status = "declining"
	StatusOutdated  Status = "outdated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCurrent, StatusDeclining, StatusOutdated:
		return true
	}
	return false
}

// ReplacementTechnology is a modern alternative to an outdated or declining topic.
type ReplacementTechnology struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// UnmarshalJSON accepts either {name, reason} or a plain "Name - reason" string,
// since the tool schema lets the model answer with strings.
func (r *ReplacementTechnology) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Name, r.Reason = splitReplacement(s)
		return nil
	}
	type plain ReplacementTechnology
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = ReplacementTechnology(p)
	return nil
}

func splitReplacement(s string) (string, string) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{" - ", " – ", " — ", ": "} {
		if i := strings.Index(s, sep); i > 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
		}
	}
	return s, ""
}

type Relevance struct {
	Status                  Status                  `json:"status"`
	Explanation             string                  `json:"explanation"`
	AdoptionRate            string                  `json:"adoptionRate,omitempty"`
	PracticalUsage          string                  `json:"practicalUsage,omitempty"`
	CompaniesUsingIt        []string                `json:"companiesUsingIt,omitempty"`
	ReplacementTechnologies []ReplacementTechnology `json:"replacementTechnologies,omitempty"`
}

// Result is the structured topic analysis: a relevance verdict plus six bullet sections.
type Result struct {
	Relevance          Relevance `json:"relevance"`
	Overview           []string  `json:"overview"`
	ModernApplications []string  `json:"modernApplications"`
	Importance         []string  `json:"importance"`
	SkillsTools        []string  `json:"skillsTools"`
	ProjectIdeas       []string  `json:"projectIdeas"`
	SkillGap           []string  `json:"skillGap"`
}

// Section is one titled bullet list of a Result, in display order.
type Section struct {
	Key     string
	Title   string
	Bullets []string
}

func (r *Result) Sections() []Section {
	return []Section{
		{Key: "overview", Title: "Topic Overview", Bullets: r.Overview},
		{Key: "modernApplications", Title: "Modern Applications", Bullets: r.ModernApplications},
		{Key: "importance", Title: "Importance & Impact", Bullets: r.Importance},
		{Key: "skillsTools", Title: "Skills & Tools to Learn", Bullets: r.SkillsTools},
		{Key: "projectIdeas", Title: "Project Ideas", Bullets: r.ProjectIdeas},
		{Key: "skillGap", Title: "Skill Gap Analysis", Bullets: r.SkillGap},
	}
}

// Parse decodes tool-call arguments into a Result and validates its shape.
// Any failure wraps ai.ErrUpstreamShape.
func Parse(arguments string) (*Result, error) {
	if strings.TrimSpace(arguments) == "" {
		return nil, fmt.Errorf("empty tool arguments: %w", ai.ErrUpstreamShape)
	}
	var r Result
	if err := json.Unmarshal([]byte(arguments), &r); err != nil {
		return nil, fmt.Errorf("decode analysis: %v: %w", err, ai.ErrUpstreamShape)
	}
	r.normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Result) normalize() {
	r.Relevance.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Relevance.Status))))
	r.Relevance.Explanation = strings.TrimSpace(r.Relevance.Explanation)
	r.Relevance.CompaniesUsingIt = compact(r.Relevance.CompaniesUsingIt)
	reps := r.Relevance.ReplacementTechnologies[:0]
	for _, t := range r.Relevance.ReplacementTechnologies {
		if strings.TrimSpace(t.Name) != "" {
			reps = append(reps, t)
		}
	}
	r.Relevance.ReplacementTechnologies = reps
	r.Overview = compact(r.Overview)
	r.ModernApplications = compact(r.ModernApplications)
	r.Importance = compact(r.Importance)
	r.SkillsTools = compact(r.SkillsTools)
	r.ProjectIdeas = compact(r.ProjectIdeas)
	r.SkillGap = compact(r.SkillGap)
}

// Validate checks the status enum and that every section has at least one bullet.
func (r *Result) Validate() error {
	if !r.Relevance.Status.Valid() {
		return fmt.Errorf("relevance status %q: %w", r.Relevance.Status, ai.ErrUpstreamShape)
	}
	for _, s := range r.Sections() {
		if len(s.Bullets) == 0 {
			return fmt.Errorf("section %s is empty: %w", s.Key, ai.ErrUpstreamShape)
		}
	}
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

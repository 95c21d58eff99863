package mindmap

import (
	"strings"
	"time"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

const DefaultInterestArea = "general"

// ParseSkillLevel lower-cases the input. Empty means beginner; anything else
// outside the three levels reports ok=false.
func ParseSkillLevel(s string) (SkillLevel, bool) {
	switch l := SkillLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return SkillBeginner, true
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return l, true
	default:
		return l, false
	}
}

// Params are the generation inputs after defaults were applied.
type Params struct {
	Topic        string     `json:"topic"`
	InterestArea string     `json:"interestArea"`
	SkillLevel   SkillLevel `json:"skillLevel"`
}

type ID string

// Saved is a mind map persisted for a user.
type Saved struct {
	ID           ID         `json:"id"`
	UserID       string     `json:"userId"`
	Topic        string     `json:"topic"`
	InterestArea string     `json:"interestArea"`
	SkillLevel   SkillLevel `json:"skillLevel"`
	Graph        Graph      `json:"mindMap"`
	CreatedAt    time.Time  `json:"createdAt"`
}

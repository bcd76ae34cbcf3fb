package models

import (
	"fmt"
	"strings"
	"time"
)

// ContentGeneration is an append-only record of one prompt sent to the model
// and the text that came back. UsedIdeas are snapshots of the ideas that were
// active at generation time.
type ContentGeneration struct {
	ID               int64     `json:"id" db:"id"`
	StoryID          int64     `json:"storyId" db:"story_id"`
	Prompt           string    `json:"prompt" db:"prompt"`
	GeneratedContent string    `json:"generatedContent" db:"generated_content"`
	UsedIdeas        []Idea    `json:"usedIdeas" db:"used_ideas"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy; UsedIdeas is never nil on the copy.
func (g *ContentGeneration) Clone() *ContentGeneration {
	if g == nil {
		return nil
	}
	c := *g
	c.UsedIdeas = make([]Idea, len(g.UsedIdeas))
	copy(c.UsedIdeas, g.UsedIdeas)
	return &c
}

// GenerationStyle selects the style directive appended to the instructions.
type GenerationStyle string

const (
	StyleDetailed GenerationStyle = "detailed"
	StyleConcise  GenerationStyle = "concise"
	StylePoetic   GenerationStyle = "poetic"
)

// ParseGenerationStyle maps user input to a style. Empty input means detailed.
func ParseGenerationStyle(s string) (GenerationStyle, error) {
	switch GenerationStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleDetailed:
		return StyleDetailed, nil
	case StyleConcise:
		return StyleConcise, nil
	case StylePoetic:
		return StylePoetic, nil
	default:
		return "", fmt.Errorf("%w: unsupported style '%s'", ErrInvalidInput, s)
	}
}

package messaging

import (
	"context"
	"time"

	"storycanvas/internal/models"
)

// GenerationEventType is the type field of generation events.
const GenerationEventType = "generation.created"

// GenerationEvent is published after a generation has been stored.
type GenerationEvent struct {
	Type         string    `json:"type"`
	GenerationID int64     `json:"generationId"`
	StoryID      int64     `json:"storyId"`
	Prompt       string    `json:"prompt"`
	UsedIdeaIDs  []int64   `json:"usedIdeaIds"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewGenerationEvent builds the event for a stored generation.
func NewGenerationEvent(gen *models.ContentGeneration, source string) GenerationEvent {
	ids := make([]int64, 0, len(gen.UsedIdeas))
	for _, idea := range gen.UsedIdeas {
		ids = append(ids, idea.ID)
	}
	return GenerationEvent{
		Type:         GenerationEventType,
		GenerationID: gen.ID,
		StoryID:      gen.StoryID,
		Prompt:       gen.Prompt,
		UsedIdeaIDs:  ids,
		Source:       source,
		CreatedAt:    gen.CreatedAt,
	}
}

// GenerationEventPublisher publishes generation events.
type GenerationEventPublisher interface {
	PublishGenerationEvent(ctx context.Context, event GenerationEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishGenerationEvent(context.Context, GenerationEvent) error { return nil }
func (NoopPublisher) Close() error                                                  { return nil }

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/internal/models"
)

func TestNewGenerationEvent(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	gen := &models.ContentGeneration{
		ID:        7,
		StoryID:   1,
		Prompt:    "What happens next?",
		UsedIdeas: []models.Idea{{ID: 5, Name: "Crystal of Eldoria"}, {ID: 1, Name: "Lyra"}},
		CreatedAt: created,
	}

	event := NewGenerationEvent(gen, "fallback")

	assert.Equal(t, GenerationEventType, event.Type)
	assert.Equal(t, int64(7), event.GenerationID)
	assert.Equal(t, []int64{5, 1}, event.UsedIdeaIDs)

	body, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "generation.created",
		"generationId": 7,
		"storyId": 1,
		"prompt": "What happens next?",
		"usedIdeaIds": [5, 1],
		"source": "fallback",
		"createdAt": "2024-05-01T12:00:00Z"
	}`, string(body))
}

func TestNewGenerationEvent_NoIdeasEncodesEmptyList(t *testing.T) {
	event := NewGenerationEvent(&models.ContentGeneration{ID: 1}, "model")
	body, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"usedIdeaIds":[]`)
}

func TestNoopPublisher(t *testing.T) {
	var p GenerationEventPublisher = NoopPublisher{}
	assert.NoError(t, p.PublishGenerationEvent(context.Background(), GenerationEvent{}))
	assert.NoError(t, p.Close())
}

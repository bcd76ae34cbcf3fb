//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"storycanvas/internal/messaging"
	"storycanvas/internal/models"
)

func TestRabbitMQPublisher_DeliversGenerationEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	ctx := context.Background()

	rmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rmqContainer.Terminate(ctx) })

	url, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	const queue = "storycanvas_generation_events_test"
	publisher, err := messaging.NewRabbitMQPublisher(url, queue, zap.NewNop())
	require.NoError(t, err)
	defer publisher.Close()

	gen := &models.ContentGeneration{
		ID:        3,
		StoryID:   1,
		Prompt:    "What happens next?",
		UsedIdeas: []models.Idea{{ID: 7, Name: "Lyra"}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, publisher.PublishGenerationEvent(ctx, messaging.NewGenerationEvent(gen, "fallback")))

	conn, err := amqp091.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var delivery amqp091.Delivery
	require.Eventually(t, func() bool {
		d, ok, err := ch.Get(queue, true)
		if err != nil || !ok {
			return false
		}
		delivery = d
		return true
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, "application/json", delivery.ContentType)
	assert.Equal(t, amqp091.Persistent, delivery.DeliveryMode)
	assert.NotEmpty(t, delivery.MessageId)

	var event messaging.GenerationEvent
	require.NoError(t, json.Unmarshal(delivery.Body, &event))
	assert.Equal(t, messaging.GenerationEventType, event.Type)
	assert.Equal(t, int64(3), event.GenerationID)
	assert.Equal(t, []int64{7}, event.UsedIdeaIDs)
	assert.Equal(t, "fallback", event.Source)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"storycanvas/internal/ai"
	"storycanvas/internal/mocks"
	"storycanvas/internal/models"
)

var sampleIdeas = []models.Idea{
	{Category: "Characters", Name: "Lyra", Description: "A young alchemist."},
	{Category: "Locations", Name: "Avaloria", Description: "An ancient realm."},
	{Category: "Characters", Name: "Thorne", Description: "A mysterious tracker."},
}

func TestBuildInstructions_NoIdeas(t *testing.T) {
	got := BuildInstructions(nil, models.StyleConcise)
	assert.Equal(t,
		"You are a creative writing assistant that helps craft engaging stories.\n\nWrite in a concise, clear style focusing on plot advancement.",
		got)
}

func TestBuildInstructions_GroupsIdeasByCategory(t *testing.T) {
	got := BuildInstructions(sampleIdeas, models.StylePoetic)

	want := "You are a creative writing assistant that helps craft engaging stories." +
		" Please incorporate the following key elements into your response:" +
		"\n\nCharacters:\n" +
		"- Lyra: A young alchemist.\n" +
		"- Thorne: A mysterious tracker.\n" +
		"\n\nLocations:\n" +
		"- Avaloria: An ancient realm.\n" +
		"\n\nWrite in a poetic, lyrical style with metaphors and beautiful language."
	assert.Equal(t, want, got)
}

func TestBuildInstructions_UnknownStyleIsDetailed(t *testing.T) {
	got := BuildInstructions(nil, "")
	assert.True(t, strings.HasSuffix(got, "Write in a detailed, descriptive style with rich imagery."))
}

func TestTextGateway_FallbackWithoutClient(t *testing.T) {
	gw := NewTextGateway(nil, 0.7, 500, zap.NewNop())

	res := gw.GenerateWithStatus(context.Background(), "What happens next?", sampleIdeas, models.StyleDetailed)

	assert.False(t, gw.Live())
	assert.Equal(t, FallbackNarrative, res.Content)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, ReasonNotConfigured, res.Reason)
}

func TestTextGateway_ReturnsModelText(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything,
		mock.MatchedBy(func(system string) bool { return strings.Contains(system, "- Lyra: A young alchemist.") }),
		"What happens next?",
		mock.MatchedBy(func(p ai.GenerationParams) bool {
			return p.Temperature != nil && *p.Temperature == 0.7 && p.MaxTokens != nil && *p.MaxTokens == 500
		}),
	).Return("Lyra ran.", ai.UsageInfo{TotalTokens: 10}, nil).Once()

	gw := NewTextGateway(client, 0.7, 500, zap.NewNop())
	res := gw.GenerateWithStatus(context.Background(), "What happens next?", sampleIdeas, models.StyleDetailed)

	assert.Equal(t, GenerationResult{Content: "Lyra ran.", Source: SourceModel}, res)
}

func TestTextGateway_ErrorFallsBack(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, errors.New("connection refused")).Once()

	gw := NewTextGateway(client, 0.7, 500, zap.NewNop())
	got := gw.Generate(context.Background(), "prompt", nil, models.StyleDetailed)

	assert.Equal(t, FallbackNarrative, got)
}

func TestTextGateway_EmptyTextFallsBack(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, nil).Once()

	gw := NewTextGateway(client, 0.7, 500, zap.NewNop())
	res := gw.GenerateWithStatus(context.Background(), "prompt", nil, models.StyleDetailed)

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, ReasonEmpty, res.Reason)
}

func TestTextGateway_WhitespaceTextIsReturned(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("  \n", ai.UsageInfo{}, nil).Once()

	gw := NewTextGateway(client, 0.7, 500, zap.NewNop())
	res := gw.GenerateWithStatus(context.Background(), "prompt", nil, models.StyleDetailed)

	assert.Equal(t, SourceModel, res.Source)
	assert.Equal(t, "  \n", res.Content)
}

func TestTextGateway_PanicFallsBack(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("boom") }).
		Return("", ai.UsageInfo{}, nil).Once()

	gw := NewTextGateway(client, 0.7, 500, zap.NewNop())
	res := gw.GenerateWithStatus(context.Background(), "prompt", nil, models.StyleDetailed)

	assert.Equal(t, FallbackNarrative, res.Content)
	assert.Equal(t, ReasonPanic, res.Reason)
}

func TestTextGateway_IgnoresCallerCancellation(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText",
		mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }),
		mock.Anything, mock.Anything, mock.Anything,
	).Return("still here", ai.UsageInfo{}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewTextGateway(client, 0.7, 500, zap.NewNop())
	assert.Equal(t, "still here", gw.Generate(ctx, "prompt", nil, models.StyleDetailed))
}

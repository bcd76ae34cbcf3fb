package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"storycanvas/internal/ai"
	"storycanvas/internal/models"
)

// FallbackNarrative is returned whenever no model text is available.
const FallbackNarrative = "Suddenly, a rustling sound caught Lyra's attention. She turned, her hand instinctively reaching for the dagger at her belt. From between the trees emerged a figure unlike any she had seen before - tall and lithe with skin that seemed to shimmer like moonlight on water."

const (
	baseInstruction  = "You are a creative writing assistant that helps craft engaging stories."
	ideasInstruction = " Please incorporate the following key elements into your response:"

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

var styleDirectives = map[models.GenerationStyle]string{
	models.StyleDetailed: "Write in a detailed, descriptive style with rich imagery.",
	models.StyleConcise:  "Write in a concise, clear style focusing on plot advancement.",
	models.StylePoetic:   "Write in a poetic, lyrical style with metaphors and beautiful language.",
}

// Source tells where generated text came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Fallback reasons, also used as metric labels.
const (
	ReasonNotConfigured = "not_configured"
	ReasonError         = "error"
	ReasonEmpty         = "empty_response"
	ReasonPanic         = "panic"
)

var generationFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storycanvas_generation_fallbacks_total",
		Help: "Total number of generations answered with the fallback narrative.",
	},
	[]string{"reason"},
)

// GenerationResult is the gateway outcome with its provenance.
type GenerationResult struct {
	Content string
	Source  Source
	Reason  string
}

// TextGateway turns a prompt plus active ideas into story text. It never fails:
// any problem with the model yields FallbackNarrative.
type TextGateway struct {
	client ai.Client
	params ai.GenerationParams
	logger *zap.Logger
}

// NewTextGateway creates a gateway. A nil client puts it in fallback mode.
func NewTextGateway(client ai.Client, temperature float64, maxTokens int, logger *zap.Logger) *TextGateway {
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &TextGateway{
		client: client,
		params: ai.GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens},
		logger: logger.Named("TextGateway"),
	}
}

// Live reports whether the gateway calls a model.
func (g *TextGateway) Live() bool { return g.client != nil }

// Generate returns the model text or the fallback narrative.
func (g *TextGateway) Generate(ctx context.Context, prompt string, activeIdeas []models.Idea, style models.GenerationStyle) string {
	return g.GenerateWithStatus(ctx, prompt, activeIdeas, style).Content
}

// GenerateWithStatus is Generate plus where the text came from.
func (g *TextGateway) GenerateWithStatus(ctx context.Context, prompt string, activeIdeas []models.Idea, style models.GenerationStyle) (result GenerationResult) {
	if g.client == nil {
		return g.fallback(ReasonNotConfigured, nil)
	}

	defer func() {
		if r := recover(); r != nil {
			result = g.fallback(ReasonPanic, fmt.Errorf("panic: %v", r))
		}
	}()

	// An issued generation is not cancelled by the caller going away.
	ctx = context.WithoutCancel(ctx)

	text, _, err := g.client.GenerateText(ctx, BuildInstructions(activeIdeas, style), prompt, g.params)
	if err != nil {
		return g.fallback(ReasonError, err)
	}
	if text == "" {
		return g.fallback(ReasonEmpty, nil)
	}
	return GenerationResult{Content: text, Source: SourceModel}
}

func (g *TextGateway) fallback(reason string, err error) GenerationResult {
	generationFallbacks.With(prometheus.Labels{"reason": reason}).Inc()
	switch reason {
	case ReasonNotConfigured:
		g.logger.Debug("No model configured, using fallback narrative")
	default:
		g.logger.Error("Text generation failed, using fallback narrative", zap.String("reason", reason), zap.Error(err))
	}
	return GenerationResult{Content: FallbackNarrative, Source: SourceFallback, Reason: reason}
}

// BuildInstructions composes the system turn: the base sentence, the ideas
// grouped by category in first-appearance order, and the style directive.
func BuildInstructions(activeIdeas []models.Idea, style models.GenerationStyle) string {
	var b strings.Builder
	b.WriteString(baseInstruction)

	if len(activeIdeas) > 0 {
		b.WriteString(ideasInstruction)
		for _, group := range models.GroupByCategory(activeIdeas) {
			fmt.Fprintf(&b, "\n\n%s:\n", group.Category)
			for _, idea := range group.Ideas {
				fmt.Fprintf(&b, "- %s: %s\n", idea.Name, idea.Description)
			}
		}
	}

	directive, ok := styleDirectives[style]
	if !ok {
		directive = styleDirectives[models.StyleDetailed]
	}
	b.WriteString("\n\n")
	b.WriteString(directive)
	return b.String()
}

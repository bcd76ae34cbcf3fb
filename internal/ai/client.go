// Package ai talks to the hosted or local language models that write story
// continuations.
package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storycanvas/internal/config"
)

// ErrAIGenerationFailed wraps every failure of a model call.
var ErrAIGenerationFailed = errors.New("ai text generation failed")

// GenerationParams are optional sampling parameters. Nil means the client default.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
}

// UsageInfo is the token usage reported by the provider, or estimated when
// the provider reports none.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool
}

// Client is one language model backend.
type Client interface {
	// GenerateText sends one system turn and one user turn and returns the
	// model text. An empty completion is reported as an error.
	GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error)
	// Model is the model name used for requests and metric labels.
	Model() string
}

// NewClient builds the client selected by AI_CLIENT_TYPE.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Client, error) {
	log := logger.Named("AIClient")
	switch cfg.AIClientType {
	case config.AIClientOpenAI:
		log.Info("Using AI client implementation: OpenAI", zap.String("model", cfg.ModelName()))
		return newOpenAIClient(cfg, log), nil
	case config.AIClientOllama:
		log.Info("Using AI client implementation: Ollama", zap.String("model", cfg.ModelName()))
		client, err := newOllamaClient(cfg, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.AIClientGemini:
		log.Info("Using AI client implementation: Gemini", zap.String("model", cfg.ModelName()))
		client, err := newGeminiClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.AIClientType)
	}
}

func float32Val(f64 *float64, def float32) float32 {
	if f64 == nil {
		return def
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

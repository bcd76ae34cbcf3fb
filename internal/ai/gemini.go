package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"storycanvas/internal/config"
)

// geminiClient implements Client with the Google GenAI SDK.
type geminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func newGeminiClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*geminiClient, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.AIAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.AITimeout},
	}
	if cfg.AIBaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.AIBaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	logger.Info("Gemini client created", zap.String("model", cfg.ModelName()), zap.Duration("timeout", cfg.AITimeout))

	return &geminiClient{client: client, model: cfg.ModelName(), logger: logger}, nil
}

func (c *geminiClient) Model() string { return c.model }

func (c *geminiClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		observeFailure(c.model, statusError)
		return "", UsageInfo{}, fmt.Errorf("%w: system prompt is empty", ErrAIGenerationFailed)
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if params.Temperature != nil {
		temperature := float32(*params.Temperature)
		genConfig.Temperature = &temperature
	}
	if params.MaxTokens != nil {
		genConfig.MaxOutputTokens = int32(*params.MaxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userInput, genai.RoleUser),
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Error("GenAI generate failed", zap.Duration("duration", duration), zap.Error(err))
		observeFailure(c.model, statusError)
		return "", UsageInfo{}, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	text := resp.Text()
	if text == "" {
		c.logger.Warn("GenAI returned an empty response", zap.Duration("duration", duration))
		observeFailure(c.model, statusEmptyResponse)
		return "", UsageInfo{}, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	var usage UsageInfo
	if md := resp.UsageMetadata; md != nil && md.TotalTokenCount > 0 {
		usage = UsageInfo{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
			TotalTokens:      int(md.TotalTokenCount),
		}
	} else {
		usage = estimateUsage(c.model, systemPrompt, userInput, text)
	}
	observeSuccess(c.model, duration, usage)
	c.logger.Info("GenAI response received",
		zap.Duration("duration", duration),
		zap.Int("responseLength", len(text)),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens))

	return text, usage, nil
}

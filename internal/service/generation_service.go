package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storycanvas/internal/messaging"
	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

// GenerateInput is one generation request.
type GenerateInput struct {
	StoryID  int64
	Prompt   string
	UseIdeas bool
	Style    models.GenerationStyle
}

// GenerationService runs prompts through the gateway and records the results.
type GenerationService struct {
	repo      repository.GenerationRepository
	ideas     *IdeaService
	gateway   *TextGateway
	guard     GenerationGuard
	publisher messaging.GenerationEventPublisher
	logger    *zap.Logger
}

func NewGenerationService(
	repo repository.GenerationRepository,
	ideas *IdeaService,
	gateway *TextGateway,
	guard GenerationGuard,
	publisher messaging.GenerationEventPublisher,
	logger *zap.Logger,
) *GenerationService {
	if guard == nil {
		guard = NewMemoryGuard(0)
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &GenerationService{
		repo:      repo,
		ideas:     ideas,
		gateway:   gateway,
		guard:     guard,
		publisher: publisher,
		logger:    logger.Named("GenerationService"),
	}
}

// Generate produces text for the prompt, stores the generation together with
// the snapshot of the ideas it used and returns both. The story itself is not
// looked up or modified.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*models.ContentGeneration, GenerationResult, error) {
	if in.Prompt == "" {
		return nil, GenerationResult{}, fmt.Errorf("%w: prompt is required", models.ErrInvalidInput)
	}

	release, err := s.guard.Acquire(ctx, in.StoryID)
	if err != nil {
		return nil, GenerationResult{}, err
	}
	defer release()

	usedIdeas := []models.Idea{}
	if in.UseIdeas {
		usedIdeas, err = s.ideas.Active(ctx, in.StoryID)
		if err != nil {
			return nil, GenerationResult{}, err
		}
	}

	result := s.gateway.GenerateWithStatus(ctx, in.Prompt, usedIdeas, in.Style)

	gen := &models.ContentGeneration{
		StoryID:          in.StoryID,
		Prompt:           in.Prompt,
		GeneratedContent: result.Content,
		UsedIdeas:        usedIdeas,
	}
	// Stored even when the caller has gone away.
	if err := s.repo.Create(context.WithoutCancel(ctx), gen); err != nil {
		s.logger.Error("Failed to store generation", zap.Int64("storyId", in.StoryID), zap.Error(err))
		return nil, GenerationResult{}, fmt.Errorf("failed to store generation: %w", err)
	}

	s.logger.Info("Content generated",
		zap.Int64("generationId", gen.ID),
		zap.Int64("storyId", gen.StoryID),
		zap.String("style", string(in.Style)),
		zap.Int("usedIdeas", len(usedIdeas)),
		zap.String("source", string(result.Source)))

	event := messaging.NewGenerationEvent(gen, string(result.Source))
	if err := s.publisher.PublishGenerationEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish generation event", zap.Int64("generationId", gen.ID), zap.Error(err))
	}

	return gen, result, nil
}

func (s *GenerationService) ListByStory(ctx context.Context, storyID int64) ([]*models.ContentGeneration, error) {
	gens, err := s.repo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return gens, nil
}

func (s *GenerationService) Get(ctx context.Context, id int64) (*models.ContentGeneration, error) {
	gen, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, models.ErrGenerationNotFound, "failed to get generation")
	}
	return gen, nil
}

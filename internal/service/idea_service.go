package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

// IdeaService manages story ideas.
type IdeaService struct {
	repo   repository.IdeaRepository
	logger *zap.Logger
}

func NewIdeaService(repo repository.IdeaRepository, logger *zap.Logger) *IdeaService {
	return &IdeaService{repo: repo, logger: logger.Named("IdeaService")}
}

func (s *IdeaService) ListByStory(ctx context.Context, storyID int64) ([]*models.Idea, error) {
	ideas, err := s.repo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

// Active returns the active ideas of a story in list order.
func (s *IdeaService) Active(ctx context.Context, storyID int64) ([]models.Idea, error) {
	ideas, err := s.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	all := make([]models.Idea, 0, len(ideas))
	for _, idea := range ideas {
		all = append(all, *idea)
	}
	return models.ActiveIdeas(all), nil
}

func (s *IdeaService) Create(ctx context.Context, idea *models.Idea) error {
	if err := s.repo.Create(ctx, idea); err != nil {
		s.logger.Error("Failed to create idea", zap.Int64("storyId", idea.StoryID), zap.Error(err))
		return fmt.Errorf("failed to create idea: %w", err)
	}
	s.logger.Info("Idea created",
		zap.Int64("ideaId", idea.ID),
		zap.Int64("storyId", idea.StoryID),
		zap.String("category", idea.Category))
	return nil
}

func (s *IdeaService) Update(ctx context.Context, id int64, patch models.IdeaPatch) (*models.Idea, error) {
	idea, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, wrapNotFound(err, models.ErrIdeaNotFound, "failed to update idea")
	}
	return idea, nil
}

func (s *IdeaService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete idea: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", models.ErrIdeaNotFound, id)
	}
	s.logger.Info("Idea deleted", zap.Int64("ideaId", id))
	return nil
}

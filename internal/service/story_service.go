package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
	"storycanvas/internal/tagging"
)

// StoryService manages stories and keeps their word count in sync with
// their content.
type StoryService struct {
	repo   repository.StoryRepository
	logger *zap.Logger
}

func NewStoryService(repo repository.StoryRepository, logger *zap.Logger) *StoryService {
	return &StoryService{repo: repo, logger: logger.Named("StoryService")}
}

func (s *StoryService) List(ctx context.Context) ([]*models.Story, error) {
	stories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (s *StoryService) Get(ctx context.Context, id int64) (*models.Story, error) {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, models.ErrStoryNotFound, "failed to get story")
	}
	return story, nil
}

// Create stores a new story. Missing fields take their defaults; the word
// count is derived from the content unless given explicitly.
func (s *StoryService) Create(ctx context.Context, fields models.StoryPatch) (*models.Story, error) {
	story := &models.Story{}
	fields = withDerivedWordCount(fields)
	fields.Apply(story)

	if err := s.repo.Create(ctx, story); err != nil {
		s.logger.Error("Failed to create story", zap.Error(err))
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	s.logger.Info("Story created", zap.Int64("storyId", story.ID), zap.Int("wordCount", story.WordCount))
	return story, nil
}

// Update applies a partial update and refreshes updatedAt.
func (s *StoryService) Update(ctx context.Context, id int64, patch models.StoryPatch) (*models.Story, error) {
	story, err := s.repo.Update(ctx, id, withDerivedWordCount(patch))
	if err != nil {
		return nil, wrapNotFound(err, models.ErrStoryNotFound, "failed to update story")
	}
	s.logger.Debug("Story updated", zap.Int64("storyId", id))
	return story, nil
}

func (s *StoryService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", models.ErrStoryNotFound, id)
	}
	s.logger.Info("Story deleted", zap.Int64("storyId", id))
	return nil
}

func withDerivedWordCount(patch models.StoryPatch) models.StoryPatch {
	if patch.Content != nil && patch.WordCount == nil {
		count := tagging.WordCount(*patch.Content)
		patch.WordCount = &count
	}
	return patch
}

// wrapNotFound turns the repository's generic not-found into the entity
// specific sentinel and wraps anything else with op.
func wrapNotFound(err, notFound error, op string) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %w", notFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

package repository

import (
	"context"

	"storycanvas/internal/models"
)

// StoryRepository defines the storage operations for stories.
type StoryRepository interface {
	// List returns every story ordered by id.
	List(ctx context.Context) ([]*models.Story, error)

	// Get returns the story or models.ErrNotFound.
	Get(ctx context.Context, id int64) (*models.Story, error)

	// Create assigns ID, CreatedAt and UpdatedAt on story and stores it.
	Create(ctx context.Context, story *models.Story) error

	// Update merges the patch, refreshes UpdatedAt and returns the stored record.
	// Returns models.ErrNotFound if the story does not exist.
	Update(ctx context.Context, id int64, patch models.StoryPatch) (*models.Story, error)

	// Delete reports whether a story existed and was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

// IdeaRepository defines the storage operations for story ideas.
type IdeaRepository interface {
	ListByStory(ctx context.Context, storyID int64) ([]*models.Idea, error)
	Get(ctx context.Context, id int64) (*models.Idea, error)
	Create(ctx context.Context, idea *models.Idea) error
	Update(ctx context.Context, id int64, patch models.IdeaPatch) (*models.Idea, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// GenerationRepository is append-only: records are never updated or deleted.
type GenerationRepository interface {
	ListByStory(ctx context.Context, storyID int64) ([]*models.ContentGeneration, error)
	Get(ctx context.Context, id int64) (*models.ContentGeneration, error)
	Create(ctx context.Context, gen *models.ContentGeneration) error
}

// Store groups the three repositories of one backend.
type Store interface {
	Stories() StoryRepository
	Ideas() IdeaRepository
	Generations() GenerationRepository
	Close(ctx context.Context) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

var _ repository.GenerationRepository = (*generationRepository)(nil)

const (
	generationColumns = `id, story_id, prompt, generated_content, used_ideas, created_at`

	listGenerationsQuery  = `SELECT ` + generationColumns + ` FROM content_generations WHERE story_id = $1 ORDER BY id`
	getGenerationQuery    = `SELECT ` + generationColumns + ` FROM content_generations WHERE id = $1`
	createGenerationQuery = `
        INSERT INTO content_generations (story_id, prompt, generated_content, used_ideas)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
)

// used_ideas is JSONB; pgx encodes and decodes []models.Idea through
// encoding/json using the struct's json tags.
type generationRepository struct {
	db     DBTX
	logger *zap.Logger
}

func (r *generationRepository) ListByStory(ctx context.Context, storyID int64) ([]*models.ContentGeneration, error) {
	gens := make([]*models.ContentGeneration, 0)
	if err := pgxscan.Select(ctx, r.db, &gens, listGenerationsQuery, storyID); err != nil {
		r.logger.Error("Failed to list generations", zap.Int64("storyId", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	for _, gen := range gens {
		if gen.UsedIdeas == nil {
			gen.UsedIdeas = []models.Idea{}
		}
	}
	return gens, nil
}

func (r *generationRepository) Get(ctx context.Context, id int64) (*models.ContentGeneration, error) {
	var gen models.ContentGeneration
	if err := pgxscan.Get(ctx, r.db, &gen, getGenerationQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation %d: %w", id, err)
	}
	if gen.UsedIdeas == nil {
		gen.UsedIdeas = []models.Idea{}
	}
	return &gen, nil
}

func (r *generationRepository) Create(ctx context.Context, gen *models.ContentGeneration) error {
	if gen.UsedIdeas == nil {
		gen.UsedIdeas = []models.Idea{}
	}
	err := r.db.QueryRow(ctx, createGenerationQuery,
		gen.StoryID, gen.Prompt, gen.GeneratedContent, gen.UsedIdeas).
		Scan(&gen.ID, &gen.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create generation", zap.Int64("storyId", gen.StoryID), zap.Error(err))
		return fmt.Errorf("failed to create generation: %w", err)
	}
	return nil
}

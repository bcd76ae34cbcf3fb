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

var _ repository.IdeaRepository = (*ideaRepository)(nil)

const (
	ideaColumns = `id, story_id, category, name, description, is_active, created_at`

	listIdeasQuery  = `SELECT ` + ideaColumns + ` FROM ideas WHERE story_id = $1 ORDER BY id`
	getIdeaQuery    = `SELECT ` + ideaColumns + ` FROM ideas WHERE id = $1`
	createIdeaQuery = `
        INSERT INTO ideas (story_id, category, name, description, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	updateIdeaQuery = `
        UPDATE ideas SET
            story_id    = COALESCE($2, story_id),
            category    = COALESCE($3, category),
            name        = COALESCE($4, name),
            description = COALESCE($5, description),
            is_active   = COALESCE($6, is_active)
        WHERE id = $1
        RETURNING ` + ideaColumns
	deleteIdeaQuery = `DELETE FROM ideas WHERE id = $1`
)

type ideaRepository struct {
	db     DBTX
	logger *zap.Logger
}

func (r *ideaRepository) ListByStory(ctx context.Context, storyID int64) ([]*models.Idea, error) {
	ideas := make([]*models.Idea, 0)
	if err := pgxscan.Select(ctx, r.db, &ideas, listIdeasQuery, storyID); err != nil {
		r.logger.Error("Failed to list ideas", zap.Int64("storyId", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

func (r *ideaRepository) Get(ctx context.Context, id int64) (*models.Idea, error) {
	var idea models.Idea
	if err := pgxscan.Get(ctx, r.db, &idea, getIdeaQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get idea %d: %w", id, err)
	}
	return &idea, nil
}

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) error {
	err := r.db.QueryRow(ctx, createIdeaQuery,
		idea.StoryID, idea.Category, idea.Name, idea.Description, idea.IsActive).
		Scan(&idea.ID, &idea.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create idea", zap.Int64("storyId", idea.StoryID), zap.Error(err))
		return fmt.Errorf("failed to create idea: %w", err)
	}
	return nil
}

func (r *ideaRepository) Update(ctx context.Context, id int64, patch models.IdeaPatch) (*models.Idea, error) {
	var idea models.Idea
	err := pgxscan.Get(ctx, r.db, &idea, updateIdeaQuery,
		id, patch.StoryID, patch.Category, patch.Name, patch.Description, patch.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update idea", zap.Int64("ideaId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update idea %d: %w", id, err)
	}
	return &idea, nil
}

func (r *ideaRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, deleteIdeaQuery, id)
}

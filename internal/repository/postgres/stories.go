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

var _ repository.StoryRepository = (*storyRepository)(nil)

const (
	storyColumns = `id, title, content, owner_id, word_count, created_at, updated_at`

	listStoriesQuery = `SELECT ` + storyColumns + ` FROM stories ORDER BY id`
	getStoryQuery    = `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	createStoryQuery = `
        INSERT INTO stories (title, content, owner_id, word_count)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	// updated_at moves forward by at least one microsecond even when now()
	// has not advanced.
	updateStoryQuery = `
        UPDATE stories SET
            title      = COALESCE($2, title),
            content    = COALESCE($3, content),
            owner_id   = COALESCE($4, owner_id),
            word_count = COALESCE($5, word_count),
            updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
        WHERE id = $1
        RETURNING ` + storyColumns
	deleteStoryQuery = `DELETE FROM stories WHERE id = $1`
)

type storyRepository struct {
	db     DBTX
	logger *zap.Logger
}

func (r *storyRepository) List(ctx context.Context) ([]*models.Story, error) {
	stories := make([]*models.Story, 0)
	if err := pgxscan.Select(ctx, r.db, &stories, listStoriesQuery); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepository) Get(ctx context.Context, id int64) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, r.db, &story, getStoryQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.Int64("storyId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %d: %w", id, err)
	}
	return &story, nil
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	story.ApplyDefaults()
	err := r.db.QueryRow(ctx, createStoryQuery, story.Title, story.Content, story.OwnerID, story.WordCount).
		Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story", zap.Error(err))
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Debug("Story created", zap.Int64("storyId", story.ID))
	return nil
}

func (r *storyRepository) Update(ctx context.Context, id int64, patch models.StoryPatch) (*models.Story, error) {
	var story models.Story
	err := pgxscan.Get(ctx, r.db, &story, updateStoryQuery,
		id, patch.Title, patch.Content, patch.OwnerID, patch.WordCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update story", zap.Int64("storyId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update story %d: %w", id, err)
	}
	return &story, nil
}

func (r *storyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, deleteStoryQuery, id)
}

func deleteByID(ctx context.Context, db DBTX, query string, id int64) (bool, error) {
	tag, err := db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/sqlscan"
	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

var _ repository.StoryRepository = (*storyRepository)(nil)

const (
	storyColumns = `id, title, content, owner_id, word_count, created_at, updated_at`

	listStoriesQuery = `SELECT ` + storyColumns + ` FROM stories ORDER BY id`
	getStoryQuery    = `SELECT ` + storyColumns + ` FROM stories WHERE id = ?`
	insertStoryQuery = `
		INSERT INTO stories (title, content, owner_id, word_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	updateStoryQuery = `
		UPDATE stories SET title = ?, content = ?, owner_id = ?, word_count = ?, updated_at = ?
		WHERE id = ?`
	deleteStoryQuery = `DELETE FROM stories WHERE id = ?`
)

type storyRepository struct {
	db     *sql.DB
	now    Clock
	logger *zap.Logger
}

func (r *storyRepository) List(ctx context.Context) ([]*models.Story, error) {
	stories := make([]*models.Story, 0)
	if err := sqlscan.Select(ctx, r.db, &stories, listStoriesQuery); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepository) Get(ctx context.Context, id int64) (*models.Story, error) {
	return getStory(ctx, r.db, id)
}

func getStory(ctx context.Context, q sqlscan.Querier, id int64) (*models.Story, error) {
	var story models.Story
	if err := sqlscan.Get(ctx, q, &story, getStoryQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story %d: %w", id, err)
	}
	return &story, nil
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	story.ApplyDefaults()
	now := r.now()
	res, err := r.db.ExecContext(ctx, insertStoryQuery,
		story.Title, story.Content, story.OwnerID, story.WordCount, now, now)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.Error(err))
		return fmt.Errorf("failed to insert story: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read story id: %w", err)
	}
	story.ID = id
	story.CreatedAt = now
	story.UpdatedAt = now
	return nil
}

func (r *storyRepository) Update(ctx context.Context, id int64, patch models.StoryPatch) (*models.Story, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin story update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	story, err := getStory(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(story)
	story.UpdatedAt = after(story.UpdatedAt, r.now())

	if _, err := tx.ExecContext(ctx, updateStoryQuery,
		story.Title, story.Content, story.OwnerID, story.WordCount, story.UpdatedAt, id); err != nil {
		r.logger.Error("Failed to update story", zap.Int64("storyId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update story %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit story update: %w", err)
	}
	return story, nil
}

func (r *storyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, deleteStoryQuery, id)
}

func deleteByID(ctx context.Context, db *sql.DB, query string, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

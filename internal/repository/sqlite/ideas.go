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

var _ repository.IdeaRepository = (*ideaRepository)(nil)

const (
	ideaColumns = `id, story_id, category, name, description, is_active, created_at`

	listIdeasQuery  = `SELECT ` + ideaColumns + ` FROM ideas WHERE story_id = ? ORDER BY id`
	getIdeaQuery    = `SELECT ` + ideaColumns + ` FROM ideas WHERE id = ?`
	insertIdeaQuery = `
		INSERT INTO ideas (story_id, category, name, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	updateIdeaQuery = `
		UPDATE ideas SET story_id = ?, category = ?, name = ?, description = ?, is_active = ?
		WHERE id = ?`
	deleteIdeaQuery = `DELETE FROM ideas WHERE id = ?`
)

type ideaRepository struct {
	db     *sql.DB
	now    Clock
	logger *zap.Logger
}

func (r *ideaRepository) ListByStory(ctx context.Context, storyID int64) ([]*models.Idea, error) {
	ideas := make([]*models.Idea, 0)
	if err := sqlscan.Select(ctx, r.db, &ideas, listIdeasQuery, storyID); err != nil {
		r.logger.Error("Failed to list ideas", zap.Int64("storyId", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

func (r *ideaRepository) Get(ctx context.Context, id int64) (*models.Idea, error) {
	return getIdea(ctx, r.db, id)
}

func getIdea(ctx context.Context, q sqlscan.Querier, id int64) (*models.Idea, error) {
	var idea models.Idea
	if err := sqlscan.Get(ctx, q, &idea, getIdeaQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get idea %d: %w", id, err)
	}
	return &idea, nil
}

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx, insertIdeaQuery,
		idea.StoryID, idea.Category, idea.Name, idea.Description, idea.IsActive, now)
	if err != nil {
		r.logger.Error("Failed to insert idea", zap.Error(err))
		return fmt.Errorf("failed to insert idea: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read idea id: %w", err)
	}
	idea.ID = id
	idea.CreatedAt = now
	return nil
}

func (r *ideaRepository) Update(ctx context.Context, id int64, patch models.IdeaPatch) (*models.Idea, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin idea update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	idea, err := getIdea(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(idea)

	if _, err := tx.ExecContext(ctx, updateIdeaQuery,
		idea.StoryID, idea.Category, idea.Name, idea.Description, idea.IsActive, id); err != nil {
		r.logger.Error("Failed to update idea", zap.Int64("ideaId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update idea %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit idea update: %w", err)
	}
	return idea, nil
}

func (r *ideaRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, deleteIdeaQuery, id)
}

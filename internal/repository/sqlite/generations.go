package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

var _ repository.GenerationRepository = (*generationRepository)(nil)

const (
	generationColumns = `id, story_id, prompt, generated_content, used_ideas, created_at`

	listGenerationsQuery  = `SELECT ` + generationColumns + ` FROM content_generations WHERE story_id = ? ORDER BY id`
	getGenerationQuery    = `SELECT ` + generationColumns + ` FROM content_generations WHERE id = ?`
	insertGenerationQuery = `
		INSERT INTO content_generations (story_id, prompt, generated_content, used_ideas, created_at)
		VALUES (?, ?, ?, ?, ?)`
)

// generationRow holds used_ideas as the JSON text it is stored as.
type generationRow struct {
	ID               int64     `db:"id"`
	StoryID          int64     `db:"story_id"`
	Prompt           string    `db:"prompt"`
	GeneratedContent string    `db:"generated_content"`
	UsedIdeas        string    `db:"used_ideas"`
	CreatedAt        time.Time `db:"created_at"`
}

func (row generationRow) toModel() (*models.ContentGeneration, error) {
	gen := &models.ContentGeneration{
		ID:               row.ID,
		StoryID:          row.StoryID,
		Prompt:           row.Prompt,
		GeneratedContent: row.GeneratedContent,
		UsedIdeas:        []models.Idea{},
		CreatedAt:        row.CreatedAt,
	}
	if row.UsedIdeas != "" {
		if err := json.Unmarshal([]byte(row.UsedIdeas), &gen.UsedIdeas); err != nil {
			return nil, fmt.Errorf("failed to decode used ideas of generation %d: %w", row.ID, err)
		}
	}
	if gen.UsedIdeas == nil {
		gen.UsedIdeas = []models.Idea{}
	}
	return gen, nil
}

type generationRepository struct {
	db     *sql.DB
	now    Clock
	logger *zap.Logger
}

func (r *generationRepository) ListByStory(ctx context.Context, storyID int64) ([]*models.ContentGeneration, error) {
	var rows []generationRow
	if err := sqlscan.Select(ctx, r.db, &rows, listGenerationsQuery, storyID); err != nil {
		r.logger.Error("Failed to list generations", zap.Int64("storyId", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	gens := make([]*models.ContentGeneration, 0, len(rows))
	for _, row := range rows {
		gen, err := row.toModel()
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	return gens, nil
}

func (r *generationRepository) Get(ctx context.Context, id int64) (*models.ContentGeneration, error) {
	var row generationRow
	if err := sqlscan.Get(ctx, r.db, &row, getGenerationQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation %d: %w", id, err)
	}
	return row.toModel()
}

func (r *generationRepository) Create(ctx context.Context, gen *models.ContentGeneration) error {
	if gen.UsedIdeas == nil {
		gen.UsedIdeas = []models.Idea{}
	}
	usedIdeas, err := json.Marshal(gen.UsedIdeas)
	if err != nil {
		return fmt.Errorf("failed to encode used ideas: %w", err)
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx, insertGenerationQuery,
		gen.StoryID, gen.Prompt, gen.GeneratedContent, string(usedIdeas), now)
	if err != nil {
		r.logger.Error("Failed to insert generation", zap.Int64("storyId", gen.StoryID), zap.Error(err))
		return fmt.Errorf("failed to insert generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read generation id: %w", err)
	}
	gen.ID = id
	gen.CreatedAt = now
	return nil
}

// Package seed loads the sample story and its ideas into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"storycanvas/internal/models"
	"storycanvas/internal/repository"
)

//go:embed sample.yaml
var sampleYAML []byte

// Data is a story together with the ideas attached to it.
type Data struct {
	Story StoryData  `yaml:"story"`
	Ideas []IdeaData `yaml:"ideas"`
}

type StoryData struct {
	Title     string `yaml:"title"`
	Content   string `yaml:"content"`
	OwnerID   int64  `yaml:"ownerId"`
	WordCount int    `yaml:"wordCount"`
}

type IdeaData struct {
	Category    string `yaml:"category"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	IsActive    bool   `yaml:"isActive"`
}

// Sample returns the built-in sample data.
func Sample() (*Data, error) {
	return Parse(sampleYAML)
}

// Parse decodes seed data from YAML.
func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	for i, idea := range data.Ideas {
		if idea.Category == "" || idea.Name == "" {
			return nil, fmt.Errorf("seed idea %d: category and name are required", i)
		}
	}
	return &data, nil
}

// Apply stores data when the store has no story yet and returns the created
// story. It returns nil without error when the store is not empty.
func Apply(ctx context.Context, store repository.Store, data *Data, logger *zap.Logger) (*models.Story, error) {
	existing, err := store.Stories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing stories: %w", err)
	}
	if len(existing) > 0 {
		logger.Debug("Store already has stories, skipping seed", zap.Int("stories", len(existing)))
		return nil, nil
	}

	story := &models.Story{
		Title:     data.Story.Title,
		Content:   data.Story.Content,
		OwnerID:   data.Story.OwnerID,
		WordCount: data.Story.WordCount,
	}
	if err := store.Stories().Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to seed story: %w", err)
	}

	for _, d := range data.Ideas {
		idea := &models.Idea{
			StoryID:     story.ID,
			Category:    d.Category,
			Name:        d.Name,
			Description: d.Description,
			IsActive:    d.IsActive,
		}
		if err := store.Ideas().Create(ctx, idea); err != nil {
			return nil, fmt.Errorf("failed to seed idea '%s': %w", d.Name, err)
		}
	}

	logger.Info("Sample data seeded",
		zap.Int64("storyId", story.ID),
		zap.String("title", story.Title),
		zap.Int("ideas", len(data.Ideas)))
	return story, nil
}

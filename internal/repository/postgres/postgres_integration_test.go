//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"storycanvas/internal/models"
	"storycanvas/internal/repository/postgres"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *tcpostgres.PostgresContainer
	dsn         string
	pool        *pgxpool.Pool
	store       *postgres.Store
	logger      *zap.Logger
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()

	var err error
	s.pgContainer, err = tcpostgres.Run(s.ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("storycanvas_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	s.dsn, err = s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	require.NoError(s.T(), postgres.MigrateUp(s.dsn, s.logger), "Failed to run migrations")

	s.pool, err = postgres.Connect(s.ctx, postgres.PoolConfig{DSN: s.dsn, MaxConns: 4, MaxRetries: 3, RetryDelay: time.Second}, s.logger)
	require.NoError(s.T(), err)
	s.store = postgres.NewStore(s.pool, s.logger)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("Failed to terminate postgres container: %v", err)
		}
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE TABLE stories, ideas, content_generations RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) TestStories_CreateGetUpdateDelete() {
	stories := s.store.Stories()

	story := &models.Story{Content: "<p>Hello world</p>", WordCount: 2}
	s.Require().NoError(stories.Create(s.ctx, story))
	s.Equal(int64(1), story.ID)
	s.Equal(models.DefaultStoryTitle, story.Title)
	s.Equal(models.DefaultOwnerID, story.OwnerID)

	got, err := stories.Get(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal(story.Content, got.Content)
	s.True(story.CreatedAt.Equal(got.CreatedAt))

	title := "Avaloria"
	updated, err := stories.Update(s.ctx, story.ID, models.StoryPatch{Title: &title})
	s.Require().NoError(err)
	s.Equal("Avaloria", updated.Title)
	s.Equal(story.Content, updated.Content)
	s.True(updated.UpdatedAt.After(story.UpdatedAt))

	again, err := stories.Update(s.ctx, story.ID, models.StoryPatch{})
	s.Require().NoError(err)
	s.True(again.UpdatedAt.After(updated.UpdatedAt))

	_, err = stories.Update(s.ctx, 404, models.StoryPatch{Title: &title})
	s.ErrorIs(err, models.ErrNotFound)

	deleted, err := stories.Delete(s.ctx, story.ID)
	s.Require().NoError(err)
	s.True(deleted)
	deleted, err = stories.Delete(s.ctx, story.ID)
	s.Require().NoError(err)
	s.False(deleted)

	_, err = stories.Get(s.ctx, story.ID)
	s.ErrorIs(err, models.ErrNotFound)

	next := &models.Story{Title: "next"}
	s.Require().NoError(stories.Create(s.ctx, next))
	s.Equal(int64(2), next.ID, "ids are never reused")
}

func (s *PostgresStoreSuite) TestIdeas_ListFilterAndPatch() {
	ideas := s.store.Ideas()

	lyra := &models.Idea{StoryID: 1, Category: "Characters", Name: "Lyra", Description: "A ranger", IsActive: true}
	s.Require().NoError(ideas.Create(s.ctx, lyra))
	s.Require().NoError(ideas.Create(s.ctx, &models.Idea{StoryID: 2, Category: "Locations", Name: "Avaloria"}))

	list, err := ideas.ListByStory(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Lyra", list[0].Name)

	inactive := false
	updated, err := ideas.Update(s.ctx, lyra.ID, models.IdeaPatch{IsActive: &inactive})
	s.Require().NoError(err)
	s.False(updated.IsActive)
	s.Equal("A ranger", updated.Description)
	s.True(lyra.CreatedAt.Equal(updated.CreatedAt))

	empty, err := ideas.ListByStory(s.ctx, 3)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestGenerations_JSONBSnapshot() {
	gens := s.store.Generations()

	used := []models.Idea{{ID: 5, StoryID: 1, Category: "Key Elements", Name: "Crystal of Eldoria", IsActive: true}}
	gen := &models.ContentGeneration{StoryID: 1, Prompt: "What happens next?", GeneratedContent: "text", UsedIdeas: used}
	s.Require().NoError(gens.Create(s.ctx, gen))
	s.Require().NoError(gens.Create(s.ctx, &models.ContentGeneration{StoryID: 1, Prompt: "again", GeneratedContent: "more"}))

	list, err := gens.ListByStory(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Require().Len(list[0].UsedIdeas, 1)
	s.Equal("Crystal of Eldoria", list[0].UsedIdeas[0].Name)
	s.NotNil(list[1].UsedIdeas)
	s.Empty(list[1].UsedIdeas)

	got, err := gens.Get(s.ctx, gen.ID)
	s.Require().NoError(err)
	s.Equal("What happens next?", got.Prompt)

	_, err = gens.Get(s.ctx, 999)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMigrateDownAndUp() {
	s.Require().NoError(postgres.MigrateDown(s.dsn, s.logger))
	s.Require().NoError(postgres.MigrateUp(s.dsn, s.logger))
	s.Require().NoError(postgres.MigrateUp(s.dsn, s.logger), "re-running up is a no-op")

	list, err := s.store.Stories().List(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}
